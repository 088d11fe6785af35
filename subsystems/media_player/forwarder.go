package media_player

import (
	"context"
	"time"

	"github.com/Artiqlate/callisto/artcache"
	"github.com/Artiqlate/callisto/eventloop"
	"github.com/Artiqlate/callisto/media"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const fullStateGroups = media.ChangeFlags | media.ChangeMetadata | media.ChangeState | media.ChangeRepeat | media.ChangeShuffle

// Forwarder publishes a local player's changes to the companion device and
// applies the device's requests to the player.
type Forwarder struct {
	logger  *zap.Logger
	loop    *eventloop.Loop
	sink    PacketSink
	fs      afero.Fs
	player  media.Player
	uploads *artcache.Transfers

	lifecycle   media.Lifecycle
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewForwarder(player media.Player, loop *eventloop.Loop, sink PacketSink, fs afero.Fs, logger *zap.Logger) *Forwarder {
	ctx, cancel := context.WithCancel(context.Background())
	forwarder := &Forwarder{
		logger:  logger,
		loop:    loop,
		sink:    sink,
		fs:      fs,
		player:  player,
		uploads: artcache.NewTransfers(time.Now),
		ctx:     ctx,
		cancel:  cancel,
	}
	forwarder.unsubscribe = player.Subscribe(forwarder.onChange)
	return forwarder
}

func (f *Forwarder) Name() string { return f.player.Name() }

// Ready reports whether the player has been announced to the device.
func (f *Forwarder) Ready() bool {
	return f.lifecycle.State() == media.LifecycleExported
}

func (f *Forwarder) onChange(change media.Change) {
	if !f.Ready() {
		return
	}
	if change.Has(media.ChangePosition) {
		f.sink.Send(newUpdatePacket(models.Body{
			mp.FieldPlayer: f.player.Name(),
			mp.FieldPos:    mp.MillisFromSeconds(f.player.Position()),
		}))
		change &^= media.ChangePosition
	}
	body := f.stateBody(change)
	if len(body) > 1 {
		f.sink.Send(newUpdatePacket(body))
	}
}

func (f *Forwarder) stateBody(groups media.Change) models.Body {
	body := models.Body{mp.FieldPlayer: f.player.Name()}
	if groups.Has(media.ChangeFlags) {
		next, previous, pause, play, seek := f.player.Flags().Flags()
		body[mp.FieldCanGoNext] = next
		body[mp.FieldCanGoPrevious] = previous
		body[mp.FieldCanPause] = pause
		body[mp.FieldCanPlay] = play
		body[mp.FieldCanSeek] = seek
	}
	if groups.Has(media.ChangeMetadata) {
		metadata := f.player.Metadata()
		body[mp.FieldArtist] = mp.JoinArtists(metadata.Artists())
		body[mp.FieldTitle] = metadata.Title()
		body[mp.FieldAlbum] = metadata.Album()
		body[mp.FieldLength] = metadata.Length() / 1000
		body[mp.FieldAlbumArtUrl] = metadata.ArtUrl()
	}
	if groups.Has(media.ChangeState) {
		body[mp.FieldIsPlaying] = f.player.State() == mp.StatePlaying
	}
	if groups.Has(media.ChangeRepeat) {
		body[mp.FieldLoopStatus] = f.player.Repeat().Wire()
	}
	if groups.Has(media.ChangeShuffle) {
		body[mp.FieldShuffle] = f.player.Shuffle()
	}
	if groups.Has(media.ChangeVolume) {
		body[mp.FieldVolume] = mp.VolumeToPercent(f.player.Volume())
	}
	return body
}

// SendFullState answers a request-update packet with a snapshot rather than
// a delta.
func (f *Forwarder) SendFullState(nowPlaying bool, volume bool) {
	groups := media.ChangeNone
	if nowPlaying {
		groups |= fullStateGroups
	}
	if volume {
		groups |= media.ChangeVolume
	}
	if groups == media.ChangeNone {
		return
	}
	body := f.stateBody(groups)
	if nowPlaying {
		body[mp.FieldPos] = mp.MillisFromSeconds(f.player.Position())
		body[mp.FieldNowPlaying] = f.player.Metadata().NowPlaying()
	}
	f.sink.Send(newUpdatePacket(body))
}

// HandleRequest applies a request packet addressed to this player.
func (f *Forwarder) HandleRequest(body models.Body) {
	nowPlaying, _ := body.Bool(mp.FieldRequestNow)
	volume, _ := body.Bool(mp.FieldRequestVolume)
	f.SendFullState(nowPlaying, volume)

	if action, ok := body.String(mp.FieldAction); ok {
		f.applyAction(action)
	}
	if offset, ok := body.Int64(mp.FieldSeek); ok {
		f.player.Seek(mp.SecondsFromMicros(offset))
	}
	if position, ok := body.Int64(mp.FieldSetPosition); ok {
		f.player.SetPosition(mp.SecondsFromMillis(position))
	}
	if loopStatus, ok := body.String(mp.FieldSetLoopStatus); ok {
		f.player.SetRepeat(mp.RepeatFromWire(loopStatus))
	}
	if shuffle, ok := body.Bool(mp.FieldSetShuffle); ok {
		f.player.SetShuffle(shuffle)
	}
	if percent, ok := body.Int64(mp.FieldSetVolume); ok {
		f.player.SetVolume(mp.VolumeFromPercent(percent))
	}
	if artUrl, ok := body.String(mp.FieldAlbumArtUrl); ok {
		f.SendAlbumArt(artUrl)
	}
}

func (f *Forwarder) applyAction(action string) {
	switch action {
	case mp.ActionNamePlay:
		f.player.Play()
	case mp.ActionNamePause:
		f.player.Pause()
	case mp.ActionNamePlayPause:
		f.player.PlayPause()
	case mp.ActionNameNext:
		f.player.Next()
	case mp.ActionNamePrevious:
		f.player.Previous()
	case mp.ActionNameStop:
		f.player.Stop()
	default:
		f.logger.Debug("unknown action", zap.String("player", f.player.Name()), zap.String("action", action))
	}
}

// SendAlbumArt uploads the current track's art file. Only the art of the
// playing track is served, and only from the local filesystem.
func (f *Forwarder) SendAlbumArt(artUrl string) {
	if artUrl == "" || artUrl != f.player.Metadata().ArtUrl() {
		f.logger.Debug("album art request does not match current track", zap.String("url", artUrl))
		return
	}
	path, ok := artcache.LocalPath(artUrl)
	if !ok {
		f.logger.Debug("album art is not a local file", zap.String("url", artUrl))
		return
	}
	if !f.uploads.Begin(artUrl) {
		return
	}
	ctx, name := f.ctx, f.player.Name()
	go func() {
		data, readErr := afero.ReadFile(f.fs, path)
		f.loop.Post(func() {
			f.uploads.Finish(artUrl)
			if ctx.Err() != nil {
				return
			}
			if readErr != nil {
				f.logger.Warn("reading album art failed", zap.String("path", path), zap.Error(readErr))
				return
			}
			packet := newUpdatePacket(models.Body{
				mp.FieldPlayer:          name,
				mp.FieldAlbumArtUrl:     artUrl,
				mp.FieldTransferringArt: true,
			})
			packet.Payload = data
			f.sink.Send(packet)
		})
	}()
}

// Close stops forwarding and drops pending uploads.
func (f *Forwarder) Close() {
	f.cancel()
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}
