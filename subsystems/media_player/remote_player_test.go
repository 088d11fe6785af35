package media_player

import (
	"testing"
	"time"

	"github.com/Artiqlate/callisto/media"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRemotePlayer(name string) (*RemotePlayer, *recordingSink, *fakeClock) {
	sink := &recordingSink{}
	clock := newFakeClock()
	return NewRemotePlayer(name, sink, nil, clock.Now), sink, clock
}

func collectChanges(player media.Player) *[]media.Change {
	changes := &[]media.Change{}
	player.Subscribe(func(change media.Change) {
		*changes = append(*changes, change)
	})
	return changes
}

func TestRemotePlayerAppliesUpdate(t *testing.T) {
	player, _, clock := newTestRemotePlayer("Foo")
	changes := collectChanges(player)

	player.HandleUpdate(models.Body{
		mp.FieldPlayer:    "Foo",
		mp.FieldCanGoNext: true,
		mp.FieldIsPlaying: true,
		mp.FieldPos:       5000,
	})

	assert.True(t, player.Flags().Has(mp.ActionNext))
	assert.False(t, player.Flags().Has(mp.ActionPrevious))
	assert.Equal(t, mp.StatePlaying, player.State())
	assert.InDelta(t, 5.0, player.Position(), 1e-9)
	assert.Equal(t, []media.Change{media.ChangeFlags, media.ChangePosition, media.ChangeState}, *changes)

	clock.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 6.5, player.Position(), 1e-9)
}

func TestRemotePlayerPartialUpdateKeepsAbsentFields(t *testing.T) {
	player, _, _ := newTestRemotePlayer("Foo")
	player.HandleUpdate(models.Body{
		mp.FieldTitle:      "Song",
		mp.FieldArtist:     "A, B",
		mp.FieldLength:     180000,
		mp.FieldShuffle:    true,
		mp.FieldLoopStatus: "Playlist",
		mp.FieldVolume:     40,
	})
	changes := collectChanges(player)

	player.HandleUpdate(models.Body{mp.FieldAlbum: "Record"})

	metadata := player.Metadata()
	assert.Equal(t, "Song", metadata.Title())
	assert.Equal(t, "Record", metadata.Album())
	assert.Equal(t, []string{"A", "B"}, metadata.Artists())
	assert.Equal(t, int64(180000000), metadata.Length())
	assert.True(t, player.Shuffle())
	assert.Equal(t, mp.RepeatPlaylist, player.Repeat())
	assert.InDelta(t, 0.4, player.Volume(), 1e-9)
	assert.Equal(t, []media.Change{media.ChangeMetadata}, *changes)
}

func TestRemotePlayerUnchangedUpdateIsSilent(t *testing.T) {
	player, _, _ := newTestRemotePlayer("Foo")
	body := models.Body{mp.FieldTitle: "Song", mp.FieldShuffle: true}
	player.HandleUpdate(body)
	changes := collectChanges(player)

	player.HandleUpdate(body)
	assert.Empty(t, *changes)
}

func TestRemotePlayerStoppedResetsPosition(t *testing.T) {
	player, _, clock := newTestRemotePlayer("Foo")
	player.HandleUpdate(models.Body{mp.FieldIsPlaying: true, mp.FieldPos: 30000})
	changes := collectChanges(player)

	clock.Advance(2 * time.Second)
	changed := player.updateState(mp.StateStopped, clock.Now())
	player.NotifyEach(changed)

	assert.Equal(t, mp.StateStopped, player.State())
	assert.Equal(t, 0.0, player.Position())
	assert.Contains(t, *changes, media.ChangePosition)
	assert.Contains(t, *changes, media.ChangeState)
}

func TestRemotePlayerPauseFreezesPosition(t *testing.T) {
	player, _, clock := newTestRemotePlayer("Foo")
	player.HandleUpdate(models.Body{mp.FieldIsPlaying: true, mp.FieldPos: 10000})
	changes := collectChanges(player)

	clock.Advance(3 * time.Second)
	player.HandleUpdate(models.Body{mp.FieldIsPlaying: false})

	assert.Equal(t, mp.StatePaused, player.State())
	assert.InDelta(t, 13.0, player.Position(), 1e-9)
	clock.Advance(time.Minute)
	assert.InDelta(t, 13.0, player.Position(), 1e-9)
	assert.Contains(t, *changes, media.ChangePosition)
}

func TestRemotePlayerKeepsPositionReceivedWhileStopped(t *testing.T) {
	player, _, clock := newTestRemotePlayer("Foo")
	changes := collectChanges(player)

	player.HandleUpdate(models.Body{mp.FieldPos: 5000})
	assert.Equal(t, 0.0, player.Position())
	assert.Empty(t, *changes)

	clock.Advance(time.Second)
	player.HandleUpdate(models.Body{mp.FieldIsPlaying: true})
	assert.Equal(t, mp.StatePlaying, player.State())
	assert.InDelta(t, 5.0, player.Position(), 1e-9)
	assert.Contains(t, *changes, media.ChangePosition)

	clock.Advance(2 * time.Second)
	assert.InDelta(t, 7.0, player.Position(), 1e-9)
}

func TestRemotePlayerVolumeClamped(t *testing.T) {
	player, sink, _ := newTestRemotePlayer("Foo")

	player.HandleUpdate(models.Body{mp.FieldVolume: 150})
	assert.Equal(t, 1.0, player.Volume())

	player.SetVolume(1.5)
	volume, ok := sink.Last().Body.Int64(mp.FieldSetVolume)
	require.True(t, ok)
	assert.Equal(t, int64(100), volume)
}

func TestRemotePlayerControlsSendRequests(t *testing.T) {
	player, sink, _ := newTestRemotePlayer("Foo")

	player.Next()
	packet := sink.Last()
	require.NotNil(t, packet)
	assert.Equal(t, PacketTypeRequest, packet.Type)
	name, _ := packet.Body.String(mp.FieldPlayer)
	assert.Equal(t, "Foo", name)
	action, _ := packet.Body.String(mp.FieldAction)
	assert.Equal(t, mp.ActionNameNext, action)

	player.Seek(2.5)
	seek, _ := sink.Last().Body.Int64(mp.FieldSeek)
	assert.Equal(t, int64(2500000), seek)

	player.SetPosition(42.25)
	position, _ := sink.Last().Body.Int64(mp.FieldSetPosition)
	assert.Equal(t, int64(42250), position)

	player.SetPosition(-3)
	position, _ = sink.Last().Body.Int64(mp.FieldSetPosition)
	assert.Equal(t, int64(0), position)

	player.SetRepeat(mp.RepeatTrack)
	loopStatus, _ := sink.Last().Body.String(mp.FieldSetLoopStatus)
	assert.Equal(t, "Track", loopStatus)

	player.SetShuffle(true)
	shuffle, _ := sink.Last().Body.Bool(mp.FieldSetShuffle)
	assert.True(t, shuffle)

	// Controls never touch local state
	assert.False(t, player.Shuffle())
	assert.Equal(t, mp.RepeatNone, player.Repeat())
}

func TestRemotePlayerPlayPause(t *testing.T) {
	player, sink, _ := newTestRemotePlayer("Foo")

	player.PlayPause()
	action, _ := sink.Last().Body.String(mp.FieldAction)
	assert.Equal(t, mp.ActionNamePlay, action)

	player.HandleUpdate(models.Body{mp.FieldIsPlaying: true, mp.FieldCanPause: true})
	player.PlayPause()
	action, _ = sink.Last().Body.String(mp.FieldAction)
	assert.Equal(t, mp.ActionNamePause, action)

	player.HandleUpdate(models.Body{mp.FieldCanPause: false})
	player.PlayPause()
	action, _ = sink.Last().Body.String(mp.FieldAction)
	assert.Equal(t, mp.ActionNamePlay, action)
}

func TestRemotePlayerAlbumArt(t *testing.T) {
	sink := &recordingSink{}
	clock := newFakeClock()
	resolver := &stubResolver{cached: map[string]string{"https://art/cached.png": "file:///cache/cached"}}
	player := NewRemotePlayer("Foo", sink, resolver, clock.Now)

	player.HandleUpdate(models.Body{mp.FieldAlbumArtUrl: "https://art/cached.png"})
	assert.Equal(t, "file:///cache/cached", player.Metadata().ArtUrl())

	player.HandleUpdate(models.Body{mp.FieldAlbumArtUrl: "https://art/new.png"})
	assert.Empty(t, player.Metadata().ArtUrl(), "stale art must not linger")
	assert.Equal(t, []string{"https://art/new.png"}, resolver.requested)

	assert.False(t, player.UpdateArt("https://art/other.png", "file:///cache/other"))
	assert.True(t, player.UpdateArt("https://art/new.png", "file:///cache/new"))
	assert.Equal(t, "file:///cache/new", player.Metadata().ArtUrl())
}
