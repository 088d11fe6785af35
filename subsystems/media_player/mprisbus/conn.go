package mprisbus

import "github.com/godbus/dbus/v5"

// ExportConn is the connection a mirrored player is exported on. *dbus.Conn
// satisfies it.
//
//go:generate mockgen -destination=mocks/export_conn_mock.go -package=mocks github.com/Artiqlate/callisto/subsystems/media_player/mprisbus ExportConn
type ExportConn interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	Close() error
}

// Dialer opens a new export connection.
type Dialer func() (ExportConn, error)

// SessionDialer opens a private session-bus connection per export, since
// every exported player lives at the same object path.
func SessionDialer() Dialer {
	return func() (ExportConn, error) {
		conn, connErr := dbus.ConnectSessionBus()
		if connErr != nil {
			return nil, connErr
		}
		return conn, nil
	}
}
