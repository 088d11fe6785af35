// Package media defines the player contract shared by remote mirrors, local
// MPRIS proxies and test doubles.
package media

import (
	"strings"

	"github.com/Artiqlate/callisto/models/mp"
)

// Change is a set of attribute groups that changed together.
type Change uint16

const (
	ChangeFlags Change = 1 << iota
	ChangeMetadata
	ChangePosition
	ChangeRepeat
	ChangeShuffle
	ChangeState
	ChangeVolume
	ChangeName

	ChangeNone Change = 0
)

var changeNames = []struct {
	change Change
	name   string
}{
	{ChangeFlags, "flags"},
	{ChangeMetadata, "metadata"},
	{ChangePosition, "position"},
	{ChangeRepeat, "repeat"},
	{ChangeShuffle, "shuffle"},
	{ChangeState, "state"},
	{ChangeVolume, "volume"},
	{ChangeName, "name"},
}

func (c Change) Has(group Change) bool {
	return c&group != 0
}

// Groups splits the set into its individual groups.
func (c Change) Groups() []Change {
	groups := []Change{}
	for _, entry := range changeNames {
		if c.Has(entry.change) {
			groups = append(groups, entry.change)
		}
	}
	return groups
}

func (c Change) String() string {
	names := []string{}
	for _, entry := range changeNames {
		if c.Has(entry.change) {
			names = append(names, entry.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Player is the state and control surface of a media player. Every method
// must be called from the owning event loop. Controls are fire-and-forget:
// they never wait for the player to act on them.
type Player interface {
	Name() string
	Flags() mp.Actions
	Metadata() mp.Metadata
	State() mp.State
	Repeat() mp.Repeat
	Shuffle() bool
	// Volume is a fraction in [0, 1].
	Volume() float64
	// Position is in seconds, extrapolated while playing.
	Position() float64

	Play()
	Pause()
	PlayPause()
	Next()
	Previous()
	Stop()
	Seek(offset float64)
	SetPosition(position float64)
	SetRepeat(repeat mp.Repeat)
	SetShuffle(shuffle bool)
	SetVolume(volume float64)

	// Subscribe registers fn for change notifications and returns a function
	// removing it.
	Subscribe(fn func(Change)) func()
}
