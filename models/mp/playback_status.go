package mp

/*
PlaybackStatus

Translation between the MPRIS playback status strings and the internal
playback state.

Ref: https://specifications.freedesktop.org/mpris-spec/latest/Player_Interface.html#Enum:Playback_Status
*/

const (
	PlaybackStatusStopped = "Stopped"
	PlaybackStatusPlaying = "Playing"
	PlaybackStatusPaused  = "Paused"
)

type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// StateFromWire never fails: unknown values read as Stopped.
func StateFromWire(playbackStatus string) State {
	switch playbackStatus {
	case PlaybackStatusPlaying:
		return StatePlaying
	case PlaybackStatusPaused:
		return StatePaused
	default:
		return StateStopped
	}
}

// StateFromPlaying maps the device's isPlaying flag.
func StateFromPlaying(isPlaying bool) State {
	if isPlaying {
		return StatePlaying
	}
	return StatePaused
}

func (s State) Wire() string {
	switch s {
	case StatePlaying:
		return PlaybackStatusPlaying
	case StatePaused:
		return PlaybackStatusPaused
	default:
		return PlaybackStatusStopped
	}
}

func (s State) String() string {
	return s.Wire()
}
