package mp

// Packet field names shared with the companion device.
const (
	FieldPlayerList      = "playerList"
	FieldSupportAlbumArt = "supportAlbumArtPayload"
	FieldPlayer          = "player"
	FieldCanGoNext       = "canGoNext"
	FieldCanGoPrevious   = "canGoPrevious"
	FieldCanPause        = "canPause"
	FieldCanPlay         = "canPlay"
	FieldCanSeek         = "canSeek"
	FieldArtist          = "artist"
	FieldTitle           = "title"
	FieldAlbum           = "album"
	FieldLength          = "length"
	FieldPos             = "pos"
	FieldLoopStatus      = "loopStatus"
	FieldIsPlaying       = "isPlaying"
	FieldShuffle         = "shuffle"
	FieldVolume          = "volume"
	FieldAlbumArtUrl     = "albumArtUrl"
	FieldTransferringArt = "transferringAlbumArt"
	FieldNowPlaying      = "nowPlaying"
	FieldRequestList     = "requestPlayerList"
	FieldRequestNow      = "requestNowPlaying"
	FieldRequestVolume   = "requestVolume"
	FieldAction          = "action"
	FieldSeek            = "Seek"
	FieldSetPosition     = "SetPosition"
	FieldSetLoopStatus   = "setLoopStatus"
	FieldSetShuffle      = "setShuffle"
	FieldSetVolume       = "setVolume"
)

// Values of the action field.
const (
	ActionNameNext      = "Next"
	ActionNamePrevious  = "Previous"
	ActionNamePause     = "Pause"
	ActionNamePlay      = "Play"
	ActionNamePlayPause = "PlayPause"
	ActionNameStop      = "Stop"
)

// CapabilityFields maps each capability boolean to its bit.
var CapabilityFields = []struct {
	Field  string
	Action Actions
}{
	{FieldCanGoNext, ActionNext},
	{FieldCanGoPrevious, ActionPrevious},
	{FieldCanPause, ActionPause},
	{FieldCanPlay, ActionPlay},
	{FieldCanSeek, ActionSeek},
}
