package mp

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/samber/lo"
)

const (
	MetadataTrackId = "mpris:trackid"
	MetadataLength  = "mpris:length"
	MetadataArtUrl  = "mpris:artUrl"
	MetadataArtist  = "xesam:artist"
	MetadataTitle   = "xesam:title"
	MetadataAlbum   = "xesam:album"

	// NoTrack is the MPRIS track id for "no current track".
	NoTrack = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

// Metadata is an open key/value map keyed by MPRIS metadata keys. Artists
// are []string, lengths are microseconds (int64), everything else defined
// here is a string.
type Metadata map[string]interface{}

func MetadataFromMPRIS(metadata map[string]dbus.Variant) Metadata {
	converted := Metadata{}
	for key, variant := range metadata {
		converted[key] = variant.Value()
	}
	return converted
}

// ToMPRIS converts to an a{sv} map. A track id is always present.
func (m Metadata) ToMPRIS() map[string]dbus.Variant {
	converted := make(map[string]dbus.Variant, len(m)+1)
	for key, value := range m {
		if value == nil {
			continue
		}
		converted[key] = dbus.MakeVariant(value)
	}
	if _, ok := converted[MetadataTrackId]; !ok {
		converted[MetadataTrackId] = dbus.MakeVariant(NoTrack)
	}
	return converted
}

func (m Metadata) Clone() Metadata {
	cloned := make(Metadata, len(m))
	for key, value := range m {
		cloned[key] = value
	}
	return cloned
}

func (m Metadata) Artists() []string {
	switch artists := m[MetadataArtist].(type) {
	case []string:
		return artists
	case string:
		return SplitArtists(artists)
	}
	return nil
}

func (m Metadata) Title() string {
	title, _ := m[MetadataTitle].(string)
	return title
}

func (m Metadata) Album() string {
	album, _ := m[MetadataAlbum].(string)
	return album
}

func (m Metadata) ArtUrl() string {
	artUrl, _ := m[MetadataArtUrl].(string)
	return artUrl
}

// Length returns the track length in microseconds.
func (m Metadata) Length() int64 {
	switch length := m[MetadataLength].(type) {
	case int64:
		return length
	case uint64:
		return int64(length)
	case int32:
		return int64(length)
	case int:
		return int64(length)
	case float64:
		return int64(length)
	}
	return 0
}

func (m Metadata) TrackId() dbus.ObjectPath {
	switch trackId := m[MetadataTrackId].(type) {
	case dbus.ObjectPath:
		return trackId
	case string:
		return dbus.ObjectPath(trackId)
	}
	return NoTrack
}

// NowPlaying renders "artist - title", dropping whichever part is empty.
func (m Metadata) NowPlaying() string {
	parts := lo.Compact([]string{JoinArtists(m.Artists()), m.Title()})
	return strings.Join(parts, " - ")
}

// SplitArtists splits the device's comma-joined artist string.
func SplitArtists(artist string) []string {
	artists := lo.Map(strings.Split(artist, ","), func(name string, _ int) string {
		return strings.TrimSpace(name)
	})
	return lo.Compact(artists)
}

func JoinArtists(artists []string) string {
	return strings.Join(artists, ", ")
}
