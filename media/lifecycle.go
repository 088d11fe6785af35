package media

// LifecycleState tracks the exposure of a player on either side of the
// bridge.
type LifecycleState int

const (
	LifecycleUnknown LifecycleState = iota
	LifecycleRegistered
	LifecycleExporting
	LifecycleExported
	LifecycleUnexporting
	LifecycleGone
)

func (s LifecycleState) String() string {
	switch s {
	case LifecycleRegistered:
		return "registered"
	case LifecycleExporting:
		return "exporting"
	case LifecycleExported:
		return "exported"
	case LifecycleUnexporting:
		return "unexporting"
	case LifecycleGone:
		return "gone"
	default:
		return "unknown"
	}
}

// Lifecycle is the state machine
//
//	Unknown -> Registered -> Exporting -> Exported -> Unexporting -> Gone
//
// A disappearance while Exporting is remembered and acted on when the export
// completes.
type Lifecycle struct {
	state           LifecycleState
	pendingTeardown bool
}

func (l *Lifecycle) State() LifecycleState {
	return l.state
}

// Register records the first sighting.
func (l *Lifecycle) Register() bool {
	if l.state != LifecycleUnknown {
		return false
	}
	l.state = LifecycleRegistered
	return true
}

func (l *Lifecycle) BeginExport() bool {
	if l.state != LifecycleRegistered {
		return false
	}
	l.state = LifecycleExporting
	return true
}

// CompleteExport finishes an export attempt. When a teardown was queued
// meanwhile the state moves to Unexporting and teardown is true; the caller
// then releases whatever the export acquired.
func (l *Lifecycle) CompleteExport(succeeded bool) (teardown bool) {
	if l.state != LifecycleExporting {
		return false
	}
	switch {
	case l.pendingTeardown:
		l.pendingTeardown = false
		l.state = LifecycleUnexporting
		return true
	case succeeded:
		l.state = LifecycleExported
	default:
		l.state = LifecycleRegistered
	}
	return false
}

// Disappear handles a disappearance signal. It reports whether the caller
// should tear down now; during an export the teardown is queued instead.
func (l *Lifecycle) Disappear() (teardown bool) {
	switch l.state {
	case LifecycleExporting:
		l.pendingTeardown = true
		return false
	case LifecycleUnknown, LifecycleRegistered, LifecycleExported:
		l.state = LifecycleUnexporting
		return true
	default:
		return false
	}
}

func (l *Lifecycle) CompleteTeardown() {
	if l.state == LifecycleUnexporting {
		l.state = LifecycleGone
	}
}

// Active reports whether the player is still meant to exist.
func (l *Lifecycle) Active() bool {
	switch l.state {
	case LifecycleRegistered, LifecycleExported:
		return true
	case LifecycleExporting:
		return !l.pendingTeardown
	default:
		return false
	}
}
