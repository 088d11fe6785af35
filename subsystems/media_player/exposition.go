package media_player

import (
	"context"
	"errors"
	"reflect"

	"github.com/Artiqlate/callisto/eventloop"
	"github.com/Artiqlate/callisto/media"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

var (
	ErrNotSupported = errors.New("not supported")
	ErrReadOnly     = errors.New("property is read-only")
	ErrInvalidArgs  = errors.New("invalid arguments")
	ErrNameTaken    = errors.New("bus name already taken")
)

type propertySpec struct {
	name      string
	signature string
	writable  bool
}

var exposedProperties = map[string][]propertySpec{
	mprisbus.RootInterface: {
		{"CanQuit", "b", false},
		{"Fullscreen", "b", true},
		{"CanSetFullscreen", "b", false},
		{"CanRaise", "b", false},
		{"HasTrackList", "b", false},
		{"Identity", "s", false},
		{"DesktopEntry", "s", false},
		{"SupportedUriSchemes", "as", false},
		{"SupportedMimeTypes", "as", false},
	},
	mprisbus.PlayerInterface: {
		{"PlaybackStatus", "s", false},
		{"LoopStatus", "s", true},
		{"Rate", "d", true},
		{"Shuffle", "b", true},
		{"Metadata", "a{sv}", false},
		{"Volume", "d", true},
		{"Position", "x", false},
		{"MinimumRate", "d", false},
		{"MaximumRate", "d", false},
		{"CanGoNext", "b", false},
		{"CanGoPrevious", "b", false},
		{"CanPlay", "b", false},
		{"CanPause", "b", false},
		{"CanSeek", "b", false},
		{"CanControl", "b", false},
	},
}

var flagProperties = []string{"CanGoNext", "CanGoPrevious", "CanPlay", "CanPause", "CanSeek", "CanControl"}

func lookupProperty(iface, name string) (propertySpec, bool) {
	for _, spec := range exposedProperties[iface] {
		if spec.name == name {
			return spec, true
		}
	}
	return propertySpec{}, false
}

type ExpositionConfig struct {
	// BusNamePrefix is extended with the player name to form the bus name.
	BusNamePrefix string
	DesktopEntry  string
	// Dial opens the export connection. Without it the player is tracked
	// but never claimed on a bus.
	Dial mprisbus.Dialer
}

// Exposition publishes a media.Player as an MPRIS object. Property reads are
// served from a cache filled on first read; player changes update the cache
// and are flushed as one PropertiesChanged per interface on the next idle
// turn of the loop.
type Exposition struct {
	logger *zap.Logger
	player media.Player
	loop   *eventloop.Loop
	config ExpositionConfig

	unsubscribe func()
	cache       map[string]map[string]dbus.Variant
	pending     map[string]map[string]dbus.Variant
	invalidated map[string][]string
	seeked      bool
	flush       *eventloop.IdleHandle

	lifecycle media.Lifecycle
	conn      mprisbus.ExportConn
	busName   string
	cancel    context.CancelFunc
}

func NewExposition(player media.Player, loop *eventloop.Loop, config ExpositionConfig, logger *zap.Logger) *Exposition {
	exposition := &Exposition{
		logger:      logger.With(zap.String("player", player.Name())),
		player:      player,
		loop:        loop,
		config:      config,
		cache:       map[string]map[string]dbus.Variant{},
		pending:     map[string]map[string]dbus.Variant{},
		invalidated: map[string][]string{},
	}
	exposition.lifecycle.Register()
	exposition.unsubscribe = player.Subscribe(exposition.onChange)
	return exposition
}

func (e *Exposition) State() media.LifecycleState {
	return e.lifecycle.State()
}

// -- PROPERTY ACCESS

func (e *Exposition) compute(iface, name string) dbus.Variant {
	flags := e.player.Flags()
	switch iface + "." + name {
	case mprisbus.RootInterface + ".Identity":
		return dbus.MakeVariant(e.player.Name())
	case mprisbus.RootInterface + ".DesktopEntry":
		return dbus.MakeVariant(e.config.DesktopEntry)
	case mprisbus.RootInterface + ".SupportedUriSchemes", mprisbus.RootInterface + ".SupportedMimeTypes":
		return dbus.MakeVariant([]string{})
	case mprisbus.PlayerInterface + ".PlaybackStatus":
		return dbus.MakeVariant(e.player.State().Wire())
	case mprisbus.PlayerInterface + ".LoopStatus":
		return dbus.MakeVariant(e.player.Repeat().Wire())
	case mprisbus.PlayerInterface + ".Rate", mprisbus.PlayerInterface + ".MinimumRate", mprisbus.PlayerInterface + ".MaximumRate":
		return dbus.MakeVariant(1.0)
	case mprisbus.PlayerInterface + ".Shuffle":
		return dbus.MakeVariant(e.player.Shuffle())
	case mprisbus.PlayerInterface + ".Metadata":
		return dbus.MakeVariant(e.player.Metadata().ToMPRIS())
	case mprisbus.PlayerInterface + ".Volume":
		return dbus.MakeVariant(mp.ClampVolume(e.player.Volume()))
	case mprisbus.PlayerInterface + ".Position":
		return dbus.MakeVariant(mp.MicrosFromSeconds(e.player.Position()))
	case mprisbus.PlayerInterface + ".CanGoNext":
		return dbus.MakeVariant(flags.Has(mp.ActionNext))
	case mprisbus.PlayerInterface + ".CanGoPrevious":
		return dbus.MakeVariant(flags.Has(mp.ActionPrevious))
	case mprisbus.PlayerInterface + ".CanPlay":
		return dbus.MakeVariant(flags.Has(mp.ActionPlay))
	case mprisbus.PlayerInterface + ".CanPause":
		return dbus.MakeVariant(flags.Has(mp.ActionPause))
	case mprisbus.PlayerInterface + ".CanSeek":
		return dbus.MakeVariant(flags.Has(mp.ActionSeek))
	case mprisbus.PlayerInterface + ".CanControl":
		return dbus.MakeVariant(flags != mp.ActionNone)
	}
	// CanQuit, Fullscreen, CanSetFullscreen, CanRaise, HasTrackList
	return dbus.MakeVariant(false)
}

// Get reads a property. Position is computed on every read.
func (e *Exposition) Get(iface, name string) (dbus.Variant, error) {
	if _, known := lookupProperty(iface, name); !known {
		return dbus.Variant{}, ErrNotSupported
	}
	if iface == mprisbus.PlayerInterface && name == "Position" {
		return e.compute(iface, name), nil
	}
	if value, cached := e.cache[iface][name]; cached {
		return value, nil
	}
	value := e.compute(iface, name)
	e.store(iface, name, value)
	return value, nil
}

func (e *Exposition) GetAll(iface string) (map[string]dbus.Variant, error) {
	specs, known := exposedProperties[iface]
	if !known {
		return nil, ErrNotSupported
	}
	values := make(map[string]dbus.Variant, len(specs))
	for _, spec := range specs {
		value, getErr := e.Get(iface, spec.name)
		if getErr != nil {
			return nil, getErr
		}
		values[spec.name] = value
	}
	return values, nil
}

// Set forwards writable properties to the player. The cache follows once the
// player reports the change.
func (e *Exposition) Set(iface, name string, value dbus.Variant) error {
	spec, known := lookupProperty(iface, name)
	if !known {
		return ErrNotSupported
	}
	if !spec.writable {
		return ErrReadOnly
	}
	switch name {
	case "LoopStatus":
		loopStatus, ok := value.Value().(string)
		if !ok {
			return ErrInvalidArgs
		}
		e.player.SetRepeat(mp.RepeatFromWire(loopStatus))
	case "Shuffle":
		shuffle, ok := value.Value().(bool)
		if !ok {
			return ErrInvalidArgs
		}
		e.player.SetShuffle(shuffle)
	case "Volume":
		volume, ok := value.Value().(float64)
		if !ok {
			return ErrInvalidArgs
		}
		e.player.SetVolume(mp.ClampVolume(volume))
	case "Rate", "Fullscreen":
		// Fixed; accepted and ignored
	}
	return nil
}

// Call dispatches a method call. It returns as soon as the call is
// forwarded.
func (e *Exposition) Call(iface, method string, args ...interface{}) error {
	switch iface {
	case mprisbus.RootInterface:
		switch method {
		case "Raise", "Quit":
			return nil
		}
	case mprisbus.PlayerInterface:
		switch method {
		case "Next":
			e.player.Next()
		case "Previous":
			e.player.Previous()
		case "Pause":
			e.player.Pause()
		case "PlayPause":
			e.player.PlayPause()
		case "Stop":
			e.player.Stop()
		case "Play":
			e.player.Play()
		case "Seek":
			if len(args) != 1 {
				return ErrInvalidArgs
			}
			offset, ok := args[0].(int64)
			if !ok {
				return ErrInvalidArgs
			}
			e.player.Seek(mp.SecondsFromMicros(offset))
		case "SetPosition":
			if len(args) != 2 {
				return ErrInvalidArgs
			}
			position, ok := args[1].(int64)
			if !ok {
				return ErrInvalidArgs
			}
			e.player.SetPosition(mp.SecondsFromMicros(position))
		case "OpenUri":
		default:
			return ErrNotSupported
		}
		return nil
	}
	return ErrNotSupported
}

// -- CHANGE BATCHING

func (e *Exposition) store(iface, name string, value dbus.Variant) {
	if e.cache[iface] == nil {
		e.cache[iface] = map[string]dbus.Variant{}
	}
	e.cache[iface][name] = value
}

// setValue updates the cache and queues the value for the next flush.
// Unchanged cached values are not queued.
func (e *Exposition) setValue(iface, name string, value dbus.Variant) {
	if cached, ok := e.cache[iface][name]; ok && reflect.DeepEqual(cached.Value(), value.Value()) {
		return
	}
	e.store(iface, name, value)
	if e.pending[iface] == nil {
		e.pending[iface] = map[string]dbus.Variant{}
	}
	e.pending[iface][name] = value
	e.scheduleFlush()
}

// invalidate announces a change without its value.
func (e *Exposition) invalidate(iface, name string) {
	e.invalidated[iface] = append(e.invalidated[iface], name)
	e.scheduleFlush()
}

func (e *Exposition) scheduleFlush() {
	if e.flush == nil {
		e.flush = e.loop.Idle(e.flushPending)
	}
}

func (e *Exposition) onChange(change media.Change) {
	for _, group := range change.Groups() {
		switch group {
		case media.ChangeFlags:
			for _, name := range flagProperties {
				e.setValue(mprisbus.PlayerInterface, name, e.compute(mprisbus.PlayerInterface, name))
			}
		case media.ChangeMetadata:
			e.setValue(mprisbus.PlayerInterface, "Metadata", e.compute(mprisbus.PlayerInterface, "Metadata"))
		case media.ChangePosition:
			e.seeked = true
			e.scheduleFlush()
		case media.ChangeRepeat:
			e.setValue(mprisbus.PlayerInterface, "LoopStatus", e.compute(mprisbus.PlayerInterface, "LoopStatus"))
		case media.ChangeShuffle:
			e.setValue(mprisbus.PlayerInterface, "Shuffle", e.compute(mprisbus.PlayerInterface, "Shuffle"))
		case media.ChangeState:
			e.setValue(mprisbus.PlayerInterface, "PlaybackStatus", e.compute(mprisbus.PlayerInterface, "PlaybackStatus"))
		case media.ChangeVolume:
			e.setValue(mprisbus.PlayerInterface, "Volume", e.compute(mprisbus.PlayerInterface, "Volume"))
		case media.ChangeName:
			e.store(mprisbus.RootInterface, "Identity", e.compute(mprisbus.RootInterface, "Identity"))
			e.invalidate(mprisbus.RootInterface, "Identity")
		}
	}
}

// flushPending emits the batch. Without an exported object the batch is
// dropped; the cache already holds the values.
func (e *Exposition) flushPending() {
	e.flush = nil
	pending, invalidated, seeked := e.pending, e.invalidated, e.seeked
	e.pending = map[string]map[string]dbus.Variant{}
	e.invalidated = map[string][]string{}
	e.seeked = false

	if e.conn == nil || e.lifecycle.State() != media.LifecycleExported {
		return
	}
	for _, iface := range []string{mprisbus.RootInterface, mprisbus.PlayerInterface} {
		changed, dropped := pending[iface], invalidated[iface]
		if len(changed) == 0 && len(dropped) == 0 {
			continue
		}
		if changed == nil {
			changed = map[string]dbus.Variant{}
		}
		if dropped == nil {
			dropped = []string{}
		}
		if emitErr := e.conn.Emit(mprisbus.ObjectPath, mprisbus.SignalPropertiesChanged, iface, changed, dropped); emitErr != nil {
			e.logger.Debug("PropertiesChanged emit failed", zap.Error(emitErr))
		}
	}
	if seeked {
		position := mp.MicrosFromSeconds(e.player.Position())
		if emitErr := e.conn.Emit(mprisbus.ObjectPath, mprisbus.SignalSeeked, position); emitErr != nil {
			e.logger.Debug("Seeked emit failed", zap.Error(emitErr))
		}
	}
}

// Close stops following the player and unexports it.
func (e *Exposition) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.flush.Cancel()
	e.flush = nil
	e.Unexport()
}
