package media_player

import (
	"sync/atomic"

	"github.com/Artiqlate/callisto/models"
	"go.uber.org/zap"
)

// PacketSink accepts outbound packets. Sending never blocks and never fails:
// packets that cannot be delivered are dropped.
type PacketSink interface {
	Send(packet *models.Packet)
}

// ChannelSink writes packets to the transmission write channel.
type ChannelSink struct {
	logger *zap.Logger
	out    chan<- *models.Packet
	closed atomic.Bool
}

func NewChannelSink(out chan<- *models.Packet, logger *zap.Logger) *ChannelSink {
	return &ChannelSink{logger: logger, out: out}
}

func (s *ChannelSink) Send(packet *models.Packet) {
	if s.closed.Load() || s.out == nil {
		s.logger.Debug("transport unavailable, dropping packet", zap.String("type", packet.Type))
		return
	}
	select {
	case s.out <- packet:
	default:
		s.logger.Warn("write channel full, dropping packet", zap.String("type", packet.Type))
	}
}

// Close makes every later Send a drop.
func (s *ChannelSink) Close() {
	s.closed.Store(true)
}
