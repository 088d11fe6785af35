package mp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknownWireStringsDegradeToDefaults(t *testing.T) {
	for _, input := range []string{"", "none", "PLAYING", "Shuffle", "Track ", "\x00", "🎵"} {
		assert.NotPanics(t, func() {
			assert.Equal(t, RepeatNone, RepeatFromWire(input), "loop status %q", input)
			assert.Equal(t, StateStopped, StateFromWire(input), "playback status %q", input)
		})
	}
}

func TestWireRoundTrip(t *testing.T) {
	for _, loopStatus := range []string{LoopStatusNone, LoopStatusTrack, LoopStatusPlaylist} {
		assert.Equal(t, loopStatus, RepeatFromWire(loopStatus).Wire())
	}
	for _, playbackStatus := range []string{PlaybackStatusStopped, PlaybackStatusPlaying, PlaybackStatusPaused} {
		assert.Equal(t, playbackStatus, StateFromWire(playbackStatus).Wire())
	}
}

func TestStateFromPlaying(t *testing.T) {
	assert.Equal(t, StatePlaying, StateFromPlaying(true))
	assert.Equal(t, StatePaused, StateFromPlaying(false))
}

func TestActionsFlags(t *testing.T) {
	actions := ActionsFromFlags(true, false, true, false, true)
	assert.True(t, actions.Has(ActionNext))
	assert.False(t, actions.Has(ActionPrevious))
	assert.True(t, actions.Has(ActionPause))
	assert.False(t, actions.Has(ActionPlay))
	assert.True(t, actions.Has(ActionSeek))
	assert.False(t, actions.Has(ActionNone))

	next, previous, pause, play, seek := actions.Flags()
	assert.Equal(t, []bool{true, false, true, false, true}, []bool{next, previous, pause, play, seek})

	cleared := actions.With(ActionNext, false).With(ActionPlay, true)
	assert.False(t, cleared.Has(ActionNext))
	assert.True(t, cleared.Has(ActionPlay))
	assert.Equal(t, "pause|play|seek", cleared.String())
	assert.Equal(t, "none", ActionNone.String())
}

func TestVolumeConversions(t *testing.T) {
	assert.Equal(t, 0.5, VolumeFromPercent(50))
	assert.Equal(t, 1.0, VolumeFromPercent(150))
	assert.Equal(t, 0.0, VolumeFromPercent(-3))
	assert.Equal(t, int64(100), VolumeToPercent(1.5))
	assert.Equal(t, int64(42), VolumeToPercent(0.42))
	assert.Equal(t, int64(0), VolumeToPercent(-1))
}

func TestArtists(t *testing.T) {
	assert.Equal(t, []string{"Simon", "Garfunkel"}, SplitArtists("Simon, Garfunkel"))
	assert.Equal(t, []string{"Solo"}, SplitArtists("Solo"))
	assert.Empty(t, SplitArtists(" , "))
	assert.Equal(t, "Simon, Garfunkel", JoinArtists([]string{"Simon", "Garfunkel"}))
}

func TestMetadataAccessors(t *testing.T) {
	metadata := Metadata{
		MetadataArtist: []string{"Artist"},
		MetadataTitle:  "Title",
		MetadataAlbum:  "Album",
		MetadataLength: int64(180_000_000),
		MetadataArtUrl: "file:///tmp/art.png",
	}
	assert.Equal(t, []string{"Artist"}, metadata.Artists())
	assert.Equal(t, "Title", metadata.Title())
	assert.Equal(t, "Album", metadata.Album())
	assert.Equal(t, int64(180_000_000), metadata.Length())
	assert.Equal(t, "file:///tmp/art.png", metadata.ArtUrl())
	assert.Equal(t, "Artist - Title", metadata.NowPlaying())
	assert.Equal(t, NoTrack, metadata.TrackId())

	assert.Equal(t, "Only", Metadata{MetadataTitle: "Only"}.NowPlaying())
	assert.Empty(t, Metadata{}.NowPlaying())
}

func TestMetadataMPRISConversion(t *testing.T) {
	metadata := Metadata{
		MetadataTitle:  "Title",
		MetadataLength: int64(1_000_000),
	}
	converted := metadata.ToMPRIS()
	assert.Equal(t, "Title", converted[MetadataTitle].Value())
	assert.Equal(t, int64(1_000_000), converted[MetadataLength].Value())
	assert.Equal(t, NoTrack, converted[MetadataTrackId].Value())

	back := MetadataFromMPRIS(converted)
	assert.Equal(t, "Title", back.Title())
	assert.Equal(t, int64(1_000_000), back.Length())

	cloned := metadata.Clone()
	cloned[MetadataTitle] = "Changed"
	assert.Equal(t, "Title", metadata.Title())
}
