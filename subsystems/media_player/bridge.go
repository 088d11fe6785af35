package media_player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Artiqlate/callisto/artcache"
	"github.com/Artiqlate/callisto/comm"
	"github.com/Artiqlate/callisto/eventloop"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/Artiqlate/callisto/utils"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type BridgeConfig struct {
	// ExportPrefix is the bus-name prefix mirrors are claimed under.
	ExportPrefix string
	DesktopEntry string
	ArtCacheDir  string
	// FS backs the album-art cache and local art reads.
	FS afero.Fs
	// Connect opens the client watching local players.
	Connect func() (mprisbus.DBusClient, error)
	// Dial opens one export connection per mirror. Nil leaves mirrors
	// unexported.
	Dial mprisbus.Dialer
	Now  func() time.Time
}

// DefaultConnect opens the session bus.
func DefaultConnect() (mprisbus.DBusClient, error) {
	client, connErr := mprisbus.NewStdDBusClient()
	if connErr != nil {
		return nil, connErr
	}
	return client, nil
}

// Bridge is the media player subsystem for one companion connection. It
// owns the loop every component runs on, mirrors the device's players
// locally and forwards the local players to the device.
type Bridge struct {
	logger  *zap.Logger
	channel *comm.BiDirMessageChannel
	config  BridgeConfig

	loop      *eventloop.Loop
	sink      *ChannelSink
	client    mprisbus.DBusClient
	registry  *RemoteRegistry
	discovery *Discovery

	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	shutdown sync.Once
}

func NewBridge(channel *comm.BiDirMessageChannel, config BridgeConfig, logger *zap.Logger) *Bridge {
	if config.FS == nil {
		config.FS = afero.NewOsFs()
	}
	if config.Connect == nil {
		config.Connect = DefaultConnect
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		logger:  logger,
		channel: channel,
		config:  config,
		loop:    eventloop.New(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Bridge) Setup() error {
	if b.channel == nil || b.channel.InChannel == nil || b.channel.OutChannel == nil {
		return fmt.Errorf("media player: channels not set up")
	}
	client, connectErr := b.config.Connect()
	if connectErr != nil {
		return fmt.Errorf("media player: connect session bus: %w", connectErr)
	}
	b.client = client
	b.sink = NewChannelSink(b.channel.OutChannel, b.logger)

	var cache *artcache.Cache
	if b.config.ArtCacheDir != "" {
		cache = artcache.New(b.config.FS, b.config.ArtCacheDir)
	}
	b.registry = NewRemoteRegistry(b.loop, b.sink, RemoteRegistryConfig{
		Exposition: ExpositionConfig{
			BusNamePrefix: b.config.ExportPrefix,
			DesktopEntry:  b.config.DesktopEntry,
			Dial:          b.config.Dial,
		},
		Cache: cache,
		Now:   b.config.Now,
	}, utils.ModuleLogger(b.logger, "remote"))
	b.discovery = NewDiscovery(b.client, b.loop, b.sink, DiscoveryConfig{
		ExportPrefix: b.config.ExportPrefix,
		FS:           b.config.FS,
		Now:          b.config.Now,
	}, utils.ModuleLogger(b.logger, "local"))

	b.running.Store(true)
	go func() {
		_ = b.loop.Run(b.ctx)
	}()
	return nil
}

// Routine runs the bridge until Shutdown or a close command.
func (b *Bridge) Routine() {
	if !b.running.Load() {
		b.logger.Error("routine started before setup")
		return
	}
	b.logger.Info("starting")

	b.loop.Post(func() {
		if b.ctx.Err() != nil {
			return
		}
		b.sink.Send(requestPlayerListPacket())
		b.discovery.Start(func(startErr error) {
			if startErr != nil {
				b.logger.Warn("local player discovery failed", zap.Error(startErr))
			}
			b.discovery.SendPlayerList()
		})
	})

routineLoop:
	for {
		select {
		case packet := <-b.channel.InChannel:
			if packet == nil {
				continue
			}
			b.loop.Post(func() { b.route(packet) })
		case command := <-b.channel.CommandChannel:
			switch command {
			case comm.CommandClose:
				break routineLoop
			default:
				b.logger.Debug("unknown command", zap.String("command", command))
			}
		case <-b.ctx.Done():
			break routineLoop
		}
	}
	b.logger.Info("stopping")
}

func (b *Bridge) route(packet *models.Packet) {
	switch packet.Type {
	case PacketTypeUpdate:
		b.registry.HandlePacket(packet)
	case PacketTypeRequest:
		b.discovery.HandleRequest(packet)
	default:
		b.logger.Debug("unhandled packet", zap.String("type", packet.Type))
	}
}

// Shutdown drops every mirror and forwarder and closes the session bus.
func (b *Bridge) Shutdown() {
	b.shutdown.Do(func() {
		teardown := func() {
			if b.registry != nil {
				b.registry.Clear()
			}
			if b.discovery != nil {
				b.discovery.Stop()
			}
		}
		if b.running.Load() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if invokeErr := b.loop.Invoke(ctx, teardown); invokeErr != nil {
				b.logger.Warn("teardown did not run", zap.Error(invokeErr))
			}
			cancel()
		} else {
			teardown()
		}
		b.cancel()

		if b.sink != nil {
			b.sink.Close()
		}
		if b.client != nil {
			if closeErr := b.client.Close(); closeErr != nil {
				b.logger.Debug("closing session bus", zap.Error(closeErr))
			}
		}
	})
}
