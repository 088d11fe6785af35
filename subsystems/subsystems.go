package subsystems

import (
	"github.com/Artiqlate/callisto/comm"
	media_player "github.com/Artiqlate/callisto/subsystems/media_player"
	"go.uber.org/zap"
)

// ServerSubsystems holds the subsystems enabled for the current companion
// connection.
type ServerSubsystems struct {
	logger         *zap.Logger
	newMediaPlayer MediaPlayerFactory
	mp             MediaPlayerSubsystem
}

func NewServerSubsystem(newMediaPlayer MediaPlayerFactory, logger *zap.Logger) *ServerSubsystems {
	return &ServerSubsystems{
		logger:         logger,
		newMediaPlayer: newMediaPlayer,
		mp:             nil,
	}
}

// SetupMediaPlayer enables the media player subsystem and starts its
// routine. Enabling it twice keeps the running one.
func (s *ServerSubsystems) SetupMediaPlayer(mpBiDirChan *comm.BiDirMessageChannel) error {
	if s.mp != nil {
		return nil
	}
	newMediaPlayer, mediaPlayerErr := s.newMediaPlayer(mpBiDirChan)
	if mediaPlayerErr != nil {
		return mediaPlayerErr
	}
	if setupErr := newMediaPlayer.Setup(); setupErr != nil {
		newMediaPlayer.Shutdown()
		return setupErr
	}
	s.mp = newMediaPlayer
	go s.mp.Routine()
	s.logger.Info("subsystem enabled", zap.String("subsystem", media_player.MediaPlayerSubsystemName))
	return nil
}

func (s *ServerSubsystems) MediaPlayerEnabled() bool {
	return s.mp != nil
}

// Shutdown closes every enabled subsystem.
func (s *ServerSubsystems) Shutdown() {
	// -- MEDIA PLAYER
	if s.mp != nil {
		s.mp.Shutdown()
		s.mp = nil
		s.logger.Info("subsystem closed", zap.String("subsystem", media_player.MediaPlayerSubsystemName))
	}
}
