package mp

import "strings"

// Actions is the capability bitmask of a player.
type Actions uint8

const (
	ActionNext Actions = 1 << iota
	ActionPrevious
	ActionPause
	ActionPlay
	ActionSeek

	ActionNone Actions = 0
)

// ActionsFromFlags packs the five capability booleans.
func ActionsFromFlags(next, previous, pause, play, seek bool) Actions {
	return ActionNone.
		With(ActionNext, next).
		With(ActionPrevious, previous).
		With(ActionPause, pause).
		With(ActionPlay, play).
		With(ActionSeek, seek)
}

func (a Actions) Has(action Actions) bool {
	return action != ActionNone && a&action == action
}

// With sets or clears the given bits.
func (a Actions) With(action Actions, enabled bool) Actions {
	if enabled {
		return a | action
	}
	return a &^ action
}

// Flags unpacks the bitmask in the order next, previous, pause, play, seek.
func (a Actions) Flags() (next, previous, pause, play, seek bool) {
	return a.Has(ActionNext), a.Has(ActionPrevious), a.Has(ActionPause), a.Has(ActionPlay), a.Has(ActionSeek)
}

func (a Actions) String() string {
	names := []string{}
	for _, entry := range []struct {
		action Actions
		name   string
	}{
		{ActionNext, "next"},
		{ActionPrevious, "previous"},
		{ActionPause, "pause"},
		{ActionPlay, "play"},
		{ActionSeek, "seek"},
	} {
		if a.Has(entry.action) {
			names = append(names, entry.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
