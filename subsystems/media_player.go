package subsystems

import (
	"fmt"
	"runtime"

	"github.com/Artiqlate/callisto/comm"
	media_player "github.com/Artiqlate/callisto/subsystems/media_player"
	"go.uber.org/zap"
)

type MediaPlayerSubsystem interface {
	Setup() error
	Routine()
	Shutdown()
}

// MediaPlayerFactory creates the media player subsystem for one companion
// connection.
type MediaPlayerFactory func(channel *comm.BiDirMessageChannel) (MediaPlayerSubsystem, error)

func NewMediaPlayerSubsystem(channel *comm.BiDirMessageChannel, config media_player.BridgeConfig, logger *zap.Logger) (MediaPlayerSubsystem, error) {
	// Only platform currently supported is Linux
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("MediaPlayerSubsystem: OS not supported (%s)", runtime.GOOS)
	}
	return media_player.NewBridge(channel, config, logger), nil
}

// NewMediaPlayerFactory binds the bridge configuration.
func NewMediaPlayerFactory(config media_player.BridgeConfig, logger *zap.Logger) MediaPlayerFactory {
	return func(channel *comm.BiDirMessageChannel) (MediaPlayerSubsystem, error) {
		return NewMediaPlayerSubsystem(channel, config, logger)
	}
}
