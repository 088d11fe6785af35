package mp

const (
	LoopStatusNone     = "None"
	LoopStatusTrack    = "Track"
	LoopStatusPlaylist = "Playlist"
)

// Repeat is the loop mode of a player.
type Repeat int

const (
	RepeatNone Repeat = iota
	RepeatTrack
	RepeatPlaylist
)

// RepeatFromWire never fails: unknown values read as None.
func RepeatFromWire(loopStatus string) Repeat {
	switch loopStatus {
	case LoopStatusTrack:
		return RepeatTrack
	case LoopStatusPlaylist:
		return RepeatPlaylist
	default:
		return RepeatNone
	}
}

func (r Repeat) Wire() string {
	switch r {
	case RepeatTrack:
		return LoopStatusTrack
	case RepeatPlaylist:
		return LoopStatusPlaylist
	default:
		return LoopStatusNone
	}
}

func (r Repeat) String() string {
	return r.Wire()
}
