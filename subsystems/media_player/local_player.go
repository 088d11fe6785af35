package media_player

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/Artiqlate/callisto/eventloop"
	"github.com/Artiqlate/callisto/media"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

var capabilityProperties = []struct {
	property string
	action   mp.Actions
}{
	{"CanGoNext", mp.ActionNext},
	{"CanGoPrevious", mp.ActionPrevious},
	{"CanPause", mp.ActionPause},
	{"CanPlay", mp.ActionPlay},
	{"CanSeek", mp.ActionSeek},
}

// LocalPlayer proxies an MPRIS player on the local session bus. Its state
// is a cache refreshed from GetAll and kept current by the signals the
// discovery routes to it.
type LocalPlayer struct {
	media.Notifier

	logger  *zap.Logger
	loop    *eventloop.Loop
	client  mprisbus.DBusClient
	control mprisbus.PlayerControl
	busName string
	now     func() time.Time

	identity string
	flags    mp.Actions
	metadata mp.Metadata
	state    mp.State
	repeat   mp.Repeat
	shuffle  bool
	volume   float64
	position mp.Position

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLocalPlayer(busName string, client mprisbus.DBusClient, loop *eventloop.Loop, now func() time.Time, logger *zap.Logger) *LocalPlayer {
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalPlayer{
		logger:   logger.With(zap.String("busName", busName)),
		loop:     loop,
		client:   client,
		control:  client.Player(busName),
		busName:  busName,
		now:      now,
		metadata: mp.Metadata{},
		state:    mp.StateStopped,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *LocalPlayer) BusName() string { return p.busName }

// Name is the player's Identity, or its bus name suffix until that is known.
func (p *LocalPlayer) Name() string {
	if p.identity != "" {
		return p.identity
	}
	return strings.TrimPrefix(p.busName, mprisbus.BusNamePrefix)
}

func (p *LocalPlayer) Flags() mp.Actions     { return p.flags }
func (p *LocalPlayer) Metadata() mp.Metadata { return p.metadata.Clone() }
func (p *LocalPlayer) State() mp.State       { return p.state }
func (p *LocalPlayer) Repeat() mp.Repeat     { return p.repeat }
func (p *LocalPlayer) Shuffle() bool         { return p.shuffle }
func (p *LocalPlayer) Volume() float64       { return mp.ClampVolume(p.volume) }

func (p *LocalPlayer) Position() float64 {
	return p.position.Current(p.state, p.now())
}

// -- REFRESH

// Refresh reloads every property off the loop. done runs on the loop unless
// the player was closed meanwhile.
func (p *LocalPlayer) Refresh(done func(error)) {
	ctx := p.ctx
	go func() {
		properties, getAllErr := p.client.GetAll(p.busName, mprisbus.PlayerInterface)
		identity, identityErr := p.client.GetProperty(p.busName, mprisbus.RootInterface+".Identity")
		p.loop.Post(func() {
			if ctx.Err() != nil {
				return
			}
			if getAllErr != nil {
				if done != nil {
					done(getAllErr)
				}
				return
			}
			changes := p.applyProperties(properties)
			if identityErr == nil {
				changes |= p.setIdentity(identity)
			} else {
				p.logger.Debug("player has no identity", zap.Error(identityErr))
			}
			p.NotifyEach(changes)
			if done != nil {
				done(nil)
			}
		})
	}()
}

func (p *LocalPlayer) setIdentity(identity dbus.Variant) media.Change {
	name, ok := identity.Value().(string)
	if !ok || name == "" || name == p.identity {
		return media.ChangeNone
	}
	p.identity = name
	return media.ChangeName
}

// HandlePropertiesChanged applies a PropertiesChanged signal body.
// Invalidated properties trigger a full refresh.
func (p *LocalPlayer) HandlePropertiesChanged(iface string, changed map[string]dbus.Variant, invalidated []string) {
	switch iface {
	case mprisbus.PlayerInterface:
		p.NotifyEach(p.applyProperties(changed))
	case mprisbus.RootInterface:
		if identity, ok := changed["Identity"]; ok {
			p.NotifyEach(p.setIdentity(identity))
		}
	default:
		return
	}
	if len(invalidated) > 0 {
		p.Refresh(nil)
	}
}

// HandleSeeked records the position carried by a Seeked signal.
func (p *LocalPlayer) HandleSeeked(micros int64) {
	p.position.Record(mp.SecondsFromMicros(micros), p.now())
	p.Notify(media.ChangePosition)
}

func (p *LocalPlayer) applyProperties(properties map[string]dbus.Variant) media.Change {
	now := p.now()
	changes := media.ChangeNone

	flags := p.flags
	for _, capability := range capabilityProperties {
		if enabled, ok := variantValue[bool](properties, capability.property); ok {
			flags = flags.With(capability.action, enabled)
		}
	}
	if flags != p.flags {
		p.flags = flags
		changes |= media.ChangeFlags
	}

	if raw, ok := variantValue[map[string]dbus.Variant](properties, "Metadata"); ok {
		if metadata := mp.MetadataFromMPRIS(raw); !reflect.DeepEqual(metadata, p.metadata) {
			p.metadata = metadata
			changes |= media.ChangeMetadata
		}
	}
	if status, ok := variantValue[string](properties, "PlaybackStatus"); ok {
		changes |= transitionState(&p.state, &p.position, mp.StateFromWire(status), now)
	}
	if micros, ok := variantValue[int64](properties, "Position"); ok && p.state != mp.StateStopped {
		p.position.Record(mp.SecondsFromMicros(micros), now)
		changes |= media.ChangePosition
	}
	if loopStatus, ok := variantValue[string](properties, "LoopStatus"); ok {
		if repeat := mp.RepeatFromWire(loopStatus); repeat != p.repeat {
			p.repeat = repeat
			changes |= media.ChangeRepeat
		}
	}
	if shuffle, ok := variantValue[bool](properties, "Shuffle"); ok && shuffle != p.shuffle {
		p.shuffle = shuffle
		changes |= media.ChangeShuffle
	}
	if volume, ok := variantValue[float64](properties, "Volume"); ok {
		if volume = mp.ClampVolume(volume); volume != p.volume {
			p.volume = volume
			changes |= media.ChangeVolume
		}
	}
	return changes
}

func variantValue[T any](properties map[string]dbus.Variant, name string) (T, bool) {
	variant, ok := properties[name]
	if !ok {
		var zero T
		return zero, false
	}
	value, ok := variant.Value().(T)
	return value, ok
}

// -- CONTROLS

func (p *LocalPlayer) Play()      { p.run("Play", p.control.Play) }
func (p *LocalPlayer) Pause()     { p.run("Pause", p.control.Pause) }
func (p *LocalPlayer) PlayPause() { p.run("PlayPause", p.control.PlayPause) }
func (p *LocalPlayer) Next()      { p.run("Next", p.control.Next) }
func (p *LocalPlayer) Previous()  { p.run("Previous", p.control.Previous) }
func (p *LocalPlayer) Stop()      { p.run("Stop", p.control.Stop) }

func (p *LocalPlayer) Seek(offset float64) {
	micros := mp.MicrosFromSeconds(offset)
	p.run("Seek", func() error {
		return p.client.Call(p.busName, mprisbus.PlayerInterface+".Seek", micros)
	})
}

func (p *LocalPlayer) SetPosition(position float64) {
	if position < 0 {
		position = 0
	}
	trackId, micros := p.metadata.TrackId(), mp.MicrosFromSeconds(position)
	p.run("SetPosition", func() error {
		return p.client.Call(p.busName, mprisbus.PlayerInterface+".SetPosition", trackId, micros)
	})
}

func (p *LocalPlayer) SetRepeat(repeat mp.Repeat) {
	p.run("SetRepeat", func() error {
		return p.client.SetProperty(p.busName, mprisbus.PlayerInterface+".LoopStatus", repeat.Wire())
	})
}

func (p *LocalPlayer) SetShuffle(shuffle bool) {
	p.run("SetShuffle", func() error { return p.control.SetShuffle(shuffle) })
}

func (p *LocalPlayer) SetVolume(volume float64) {
	volume = mp.ClampVolume(volume)
	p.run("SetVolume", func() error { return p.control.SetVolume(volume) })
}

// run issues a bus call without waiting for it.
func (p *LocalPlayer) run(action string, call func() error) {
	go func() {
		if callErr := call(); callErr != nil {
			p.logger.Debug("player control failed", zap.String("action", action), zap.Error(callErr))
		}
	}()
}

// Close drops pending refreshes.
func (p *LocalPlayer) Close() {
	p.cancel()
}
