package media_player

import (
	"reflect"
	"time"

	"github.com/Artiqlate/callisto/artcache"
	"github.com/Artiqlate/callisto/media"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
)

// artResolver finds locally cached album art, requesting it when missing.
type artResolver interface {
	resolveArt(player string, artUrl string) (localUri string, cached bool)
}

// RemotePlayer mirrors a player of the companion device. Its state is
// driven by update packets; its controls become request packets.
type RemotePlayer struct {
	media.Notifier

	name string
	sink PacketSink
	art  artResolver
	now  func() time.Time

	flags        mp.Actions
	metadata     mp.Metadata
	state        mp.State
	repeat       mp.Repeat
	shuffle      bool
	volume       float64
	position     mp.Position
	remoteArtUrl string
}

func NewRemotePlayer(name string, sink PacketSink, art artResolver, now func() time.Time) *RemotePlayer {
	if now == nil {
		now = time.Now
	}
	return &RemotePlayer{
		name:     name,
		sink:     sink,
		art:      art,
		now:      now,
		metadata: mp.Metadata{},
		state:    mp.StateStopped,
		repeat:   mp.RepeatNone,
	}
}

// -- STATE

func (p *RemotePlayer) Name() string { return p.name }
func (p *RemotePlayer) Flags() mp.Actions { return p.flags }
func (p *RemotePlayer) Metadata() mp.Metadata { return p.metadata.Clone() }
func (p *RemotePlayer) State() mp.State { return p.state }
func (p *RemotePlayer) Repeat() mp.Repeat { return p.repeat }
func (p *RemotePlayer) Shuffle() bool { return p.shuffle }
func (p *RemotePlayer) Volume() float64 { return mp.ClampVolume(p.volume) }

// Position is 0 while Stopped, even when a position is already known for
// the next start.
func (p *RemotePlayer) Position() float64 {
	if p.state == mp.StateStopped {
		return 0
	}
	return p.position.Current(p.state, p.now())
}

// -- CONTROLS

func (p *RemotePlayer) Play() { p.sendAction(mp.ActionNamePlay) }
func (p *RemotePlayer) Pause() { p.sendAction(mp.ActionNamePause) }
func (p *RemotePlayer) Next() { p.sendAction(mp.ActionNameNext) }
func (p *RemotePlayer) Previous() { p.sendAction(mp.ActionNamePrevious) }
func (p *RemotePlayer) Stop() { p.sendAction(mp.ActionNameStop) }

// PlayPause has no wire action; it resolves to Play or Pause here.
func (p *RemotePlayer) PlayPause() {
	if p.state == mp.StatePlaying && p.flags.Has(mp.ActionPause) {
		p.Pause()
		return
	}
	p.Play()
}

func (p *RemotePlayer) Seek(offset float64) {
	p.sendRequest(models.Body{mp.FieldSeek: mp.MicrosFromSeconds(offset)})
}

func (p *RemotePlayer) SetPosition(position float64) {
	if position < 0 {
		position = 0
	}
	p.sendRequest(models.Body{mp.FieldSetPosition: mp.MillisFromSeconds(position)})
}

func (p *RemotePlayer) SetRepeat(repeat mp.Repeat) {
	p.sendRequest(models.Body{mp.FieldSetLoopStatus: repeat.Wire()})
}

func (p *RemotePlayer) SetShuffle(shuffle bool) {
	p.sendRequest(models.Body{mp.FieldSetShuffle: shuffle})
}

func (p *RemotePlayer) SetVolume(volume float64) {
	p.sendRequest(models.Body{mp.FieldSetVolume: mp.VolumeToPercent(volume)})
}

func (p *RemotePlayer) sendAction(action string) {
	p.sendRequest(models.Body{mp.FieldAction: action})
}

func (p *RemotePlayer) sendRequest(body models.Body) {
	body[mp.FieldPlayer] = p.name
	p.sink.Send(newRequestPacket(body))
}

// -- INBOUND UPDATES

// HandleUpdate applies the fields present in an update packet. Absent fields
// are left untouched. One notification is emitted per changed group.
func (p *RemotePlayer) HandleUpdate(body models.Body) {
	now := p.now()
	changes := p.updateFlags(body) | p.updateMetadata(body)

	wasStopped := p.state == mp.StateStopped
	if isPlaying, ok := body.Bool(mp.FieldIsPlaying); ok {
		changes |= p.updateState(mp.StateFromPlaying(isPlaying), now)
	}
	if pos, ok := body.Int64(mp.FieldPos); ok {
		// Kept while Stopped and applied once playback starts
		p.position.Record(mp.SecondsFromMillis(pos), now)
		if p.state != mp.StateStopped {
			changes |= media.ChangePosition
		}
	} else if wasStopped && p.state != mp.StateStopped && p.position.Seconds != 0 {
		changes |= media.ChangePosition
	}
	if loopStatus, ok := body.String(mp.FieldLoopStatus); ok {
		if repeat := mp.RepeatFromWire(loopStatus); repeat != p.repeat {
			p.repeat = repeat
			changes |= media.ChangeRepeat
		}
	}
	if shuffle, ok := body.Bool(mp.FieldShuffle); ok && shuffle != p.shuffle {
		p.shuffle = shuffle
		changes |= media.ChangeShuffle
	}
	if percent, ok := body.Int64(mp.FieldVolume); ok {
		if volume := mp.VolumeFromPercent(percent); volume != p.volume {
			p.volume = volume
			changes |= media.ChangeVolume
		}
	}

	p.NotifyEach(changes)
}

func (p *RemotePlayer) updateFlags(body models.Body) media.Change {
	flags := p.flags
	for _, capability := range mp.CapabilityFields {
		if enabled, ok := body.Bool(capability.Field); ok {
			flags = flags.With(capability.Action, enabled)
		}
	}
	if flags == p.flags {
		return media.ChangeNone
	}
	p.flags = flags
	return media.ChangeFlags
}

func (p *RemotePlayer) updateMetadata(body models.Body) media.Change {
	metadata := p.metadata.Clone()
	if artist, ok := body.String(mp.FieldArtist); ok {
		metadata[mp.MetadataArtist] = mp.SplitArtists(artist)
	}
	if title, ok := body.String(mp.FieldTitle); ok {
		metadata[mp.MetadataTitle] = title
	}
	if album, ok := body.String(mp.FieldAlbum); ok {
		metadata[mp.MetadataAlbum] = album
	}
	if length, ok := body.Int64(mp.FieldLength); ok {
		metadata[mp.MetadataLength] = length * 1000
	}
	if artUrl, ok := body.String(mp.FieldAlbumArtUrl); ok {
		p.updateArtUrl(metadata, artUrl)
	}
	if reflect.DeepEqual(metadata, p.metadata) {
		return media.ChangeNone
	}
	p.metadata = metadata
	return media.ChangeMetadata
}

// updateArtUrl never stores the remote URL itself: the exposed art reference
// is the local cache file, set once the art is available.
func (p *RemotePlayer) updateArtUrl(metadata mp.Metadata, artUrl string) {
	if artcache.Normalize(artUrl) != artcache.Normalize(p.remoteArtUrl) {
		delete(metadata, mp.MetadataArtUrl)
	}
	p.remoteArtUrl = artUrl
	if artUrl == "" || p.art == nil {
		return
	}
	if localUri, cached := p.art.resolveArt(p.name, artUrl); cached {
		metadata[mp.MetadataArtUrl] = localUri
	}
}

func (p *RemotePlayer) updateState(state mp.State, now time.Time) media.Change {
	return transitionState(&p.state, &p.position, state, now)
}

// transitionState moves a player to state, adjusting its position. It
// returns the groups to notify.
func transitionState(current *mp.State, position *mp.Position, state mp.State, now time.Time) media.Change {
	if state == *current {
		return media.ChangeNone
	}
	previous := *current
	*current = state
	changes := media.ChangeState
	if position.Transition(previous, state, now) {
		changes |= media.ChangePosition
	}
	return changes
}

// UpdateArt points the metadata at a freshly cached art file. It is ignored
// when the track moved on to different art meanwhile.
func (p *RemotePlayer) UpdateArt(artUrl string, localUri string) bool {
	if artcache.Normalize(artUrl) != artcache.Normalize(p.remoteArtUrl) {
		return false
	}
	if p.metadata.ArtUrl() == localUri {
		return false
	}
	metadata := p.metadata.Clone()
	metadata[mp.MetadataArtUrl] = localUri
	p.metadata = metadata
	p.Notify(media.ChangeMetadata)
	return true
}
