package callisto

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Artiqlate/callisto/comm"
	"github.com/Artiqlate/callisto/config"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/subsystems"
	media_player "github.com/Artiqlate/callisto/subsystems/media_player"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/Artiqlate/callisto/transmission"
	"github.com/Artiqlate/callisto/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	writeChannelSize = 64
	shutdownTimeout  = 10 * time.Second
)

var ErrStopTimeout = errors.New("server did not stop in time")

type ServerSignalChannels struct {
	moduleInitChannel  chan []string
	moduleCloseChannel chan bool
	netTransmissionErr chan error
	commChannels       *comm.CommChannels
}

func NewServerSignalChannels(writeChannel chan *models.Packet) *ServerSignalChannels {
	return &ServerSignalChannels{
		moduleInitChannel:  make(chan []string, 20),
		moduleCloseChannel: make(chan bool, 1),
		netTransmissionErr: make(chan error, 1),
		commChannels:       comm.NewCommChannels(writeChannel),
	}
}

// ServerModule runs the transmission server and enables subsystems on
// request of the connected companion device.
type ServerModule struct {
	logger       *zap.Logger
	config       *config.Config
	writeChannel chan *models.Packet
	nt           *transmission.NetworkTransmissionServer
	nd           *subsystems.NetworkDiscovery
	subsystems   *subsystems.ServerSubsystems
	signals      *ServerSignalChannels

	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	started bool
}

func NewServerModule(cfg *config.Config, logger *zap.Logger) (*ServerModule, error) {
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}
	logger = utils.ModuleLogger(logger, "server")
	serverWriteChannel := make(chan *models.Packet, writeChannelSize)
	serverSignalChannels := NewServerSignalChannels(serverWriteChannel)
	mediaPlayerFactory := subsystems.NewMediaPlayerFactory(media_player.BridgeConfig{
		ExportPrefix: cfg.MediaPlayer.ExportPrefix,
		DesktopEntry: cfg.MediaPlayer.DesktopEntry,
		ArtCacheDir:  cfg.MediaPlayer.ArtCacheDir,
		Dial:         mprisbus.SessionDialer(),
	}, utils.ModuleLogger(logger, media_player.MediaPlayerSubsystemName))
	return &ServerModule{
		logger:       logger,
		config:       cfg,
		writeChannel: serverWriteChannel,
		nt: transmission.NewNetworkTransmissionServer(
			cfg.Server.Port,
			serverWriteChannel,
			serverSignalChannels.moduleInitChannel,
			serverSignalChannels.moduleCloseChannel,
			serverSignalChannels.commChannels,
			utils.ModuleLogger(logger, "transmission"),
		),
		signals: serverSignalChannels,
		// Modules: Add modules here. This is "mp", media_player module
		subsystems: subsystems.NewServerSubsystem(mediaPlayerFactory, logger),
		done:       make(chan struct{}),
	}, nil
}

func (s *ServerModule) setup() error {
	if listenErr := s.nt.Listen(); listenErr != nil {
		return listenErr
	}
	if !s.config.Zeroconf.Enabled {
		return nil
	}
	nd, ndErr := subsystems.NewNetworkDiscovery(
		s.config.Zeroconf.Instance,
		s.config.Zeroconf.Service,
		s.port(),
		s.config.Server.Secure,
		utils.ModuleLogger(s.logger, "zeroconf"),
	)
	if ndErr != nil {
		// The companion can still connect by address
		s.logger.Warn("service advertisement failed", zap.Error(ndErr))
		return nil
	}
	s.nd = nd
	return nil
}

// port is the bound port, which differs from the configured one for port 0.
func (s *ServerModule) port() int {
	if addr, ok := s.nt.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.config.Server.Port
}

func (s *ServerModule) initializeModule(mods []string) []string {
	enabledModules := []string{}
	for _, mod := range mods {
		switch mod {
		case media_player.MediaPlayerSubsystemName:
			if setupErr := s.subsystems.SetupMediaPlayer(s.signals.commChannels.MPChannel); setupErr != nil {
				s.logger.Warn("media player unavailable", zap.Error(setupErr))
				continue
			}
			enabledModules = append(enabledModules, mod)
		default:
			s.logger.Debug("unknown module requested", zap.String("module", mod))
		}
	}
	return enabledModules
}

func (s *ServerModule) send(packet *models.Packet) {
	select {
	case s.writeChannel <- packet:
	default:
		s.logger.Warn("write channel full, dropping packet", zap.String("type", packet.Type))
	}
}

func (s *ServerModule) routine(ctx context.Context) error {
	for {
		select {
		// Module Initialization Channel
		case initModule := <-s.signals.moduleInitChannel:
			initializedModules := s.initializeModule(initModule)
			s.logger.Info("initializing modules", zap.Strings("requested", initModule), zap.Strings("enabled", initializedModules))
			s.send(models.NewInitReply(initializedModules))
		// Module Close Channel
		case <-s.signals.moduleCloseChannel:
			if !s.subsystems.MediaPlayerEnabled() {
				s.logger.Debug("close triggered, no modules enabled")
				continue
			}
			s.logger.Info("close triggered")
			s.subsystems.Shutdown()
		// If the server encounters an error
		case servErr := <-s.signals.netTransmissionErr:
			return fmt.Errorf("network transmission: %w", servErr)
		case <-ctx.Done():
			s.logger.Info("stopping")
			return nil
		}
	}
}

func (s *ServerModule) shutdown() error {
	shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	// -- MEDIA PLAYER SHUTDOWN
	s.subsystems.Shutdown()

	// -- SERVICE ADVERTISEMENT
	if s.nd != nil {
		s.nd.Shutdown()
	}

	// -- NETWORK TRANSMISSION SHUTDOWN
	if ntErr := s.nt.Shutdown(shutdownContext); ntErr != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("server shutdown: %w", ntErr))
	}
	return shutdownErr
}

// Start runs the server in the background.
func (s *ServerModule) Start() error {
	if s.started {
		return errors.New("server already started")
	}
	// Bind before returning, so a taken port fails the start
	if setupErr := s.setup(); setupErr != nil {
		return setupErr
	}
	s.started = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer close(s.done)
		go s.nt.Coroutine(s.signals.netTransmissionErr)
		routineErr := s.routine(ctx)
		s.runErr = multierr.Append(routineErr, s.shutdown())
		if s.runErr != nil {
			s.logger.Error("server stopped", zap.Error(s.runErr))
		}
	}()
	return nil
}

// Done is closed once a started server stops.
func (s *ServerModule) Done() <-chan struct{} {
	return s.done
}

// Stop shuts a started server down and waits for it.
func (s *ServerModule) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return s.runErr
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrStopTimeout, ctx.Err())
	}
}
