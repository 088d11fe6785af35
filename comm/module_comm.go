package comm

import "github.com/Artiqlate/callisto/models"

const (
	// CommandClose stops a module routine.
	CommandClose = "close"

	channelBuffer = 64
)

// BiDirMessageChannel connects the transmission server with one subsystem.
// InChannel carries packets routed to the subsystem, OutChannel the packets
// it sends back to the companion device.
type BiDirMessageChannel struct {
	InChannel      chan *models.Packet
	CommandChannel chan string
	OutChannel     chan *models.Packet
}

// NewBiDirMessageChannel creates the channels of a subsystem writing to out.
// A nil out gets a channel of its own.
func NewBiDirMessageChannel(out chan *models.Packet) *BiDirMessageChannel {
	if out == nil {
		out = make(chan *models.Packet, channelBuffer)
	}
	return &BiDirMessageChannel{
		InChannel:      make(chan *models.Packet, channelBuffer),
		CommandChannel: make(chan string, 1),
		OutChannel:     out,
	}
}

type CommChannels struct {
	MPChannel *BiDirMessageChannel
}

// NewCommChannels creates the subsystem channels, all writing to the shared
// transmission write channel.
func NewCommChannels(writeChannel chan *models.Packet) *CommChannels {
	return &CommChannels{
		MPChannel: NewBiDirMessageChannel(writeChannel),
	}
}
