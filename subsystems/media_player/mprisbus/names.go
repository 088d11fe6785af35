// Package mprisbus holds the session-bus seams of the media player
// subsystem: the client used to watch and drive local players and the
// connection used to export mirrored ones.
package mprisbus

import "github.com/godbus/dbus/v5"

const (
	ObjectPath = dbus.ObjectPath("/org/mpris/MediaPlayer2")

	BusNamePrefix = "org.mpris.MediaPlayer2."

	RootInterface       = "org.mpris.MediaPlayer2"
	PlayerInterface     = "org.mpris.MediaPlayer2.Player"
	PropertiesInterface = "org.freedesktop.DBus.Properties"
	IntrospectInterface = "org.freedesktop.DBus.Introspectable"

	SignalPropertiesChanged = PropertiesInterface + ".PropertiesChanged"
	SignalSeeked            = PlayerInterface + ".Seeked"
	SignalNameOwnerChanged  = "org.freedesktop.DBus.NameOwnerChanged"

	ErrorUnknownMethod    = "org.freedesktop.DBus.Error.UnknownMethod"
	ErrorUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
	ErrorPropertyReadOnly = "org.freedesktop.DBus.Error.PropertyReadOnly"
	ErrorInvalidArgs      = "org.freedesktop.DBus.Error.InvalidArgs"
)
