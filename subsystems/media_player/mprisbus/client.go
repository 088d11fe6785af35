package mprisbus

import (
	"github.com/Pauloo27/go-mpris"
	"github.com/godbus/dbus/v5"
)

// PlayerControl drives the transport of one local MPRIS player.
type PlayerControl interface {
	Play() error
	Pause() error
	PlayPause() error
	Next() error
	Previous() error
	Stop() error
	SetVolume(volume float64) error
	SetShuffle(shuffle bool) error
}

// DBusClient is the session-bus surface used to watch local players.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/Artiqlate/callisto/subsystems/media_player/mprisbus DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// AddMatchSignal adds a signal match rule
	AddMatchSignal(options ...dbus.MatchOption) error

	// Signal registers a channel to receive D-Bus signals
	Signal(ch chan<- *dbus.Signal)

	// ListPlayers returns the bus names of all MPRIS players
	ListPlayers() ([]string, error)

	// GetNameOwner returns the unique name that owns the given well-known name
	GetNameOwner(name string) (string, error)

	// GetAll fetches every property of an interface on the MPRIS object
	GetAll(busName, iface string) (map[string]dbus.Variant, error)

	// GetProperty fetches one property ("<interface>.<name>") of the MPRIS object
	GetProperty(busName, property string) (dbus.Variant, error)

	// SetProperty sets one property ("<interface>.<name>") of the MPRIS object
	SetProperty(busName, property string, value interface{}) error

	// Call invokes a method ("<interface>.<name>") on the MPRIS object
	Call(busName, method string, args ...interface{}) error

	// Player returns the transport control of a player
	Player(busName string) PlayerControl
}

// StdDBusClient is the real implementation using godbus and go-mpris.
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus.
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, connErr := dbus.ConnectSessionBus()
	if connErr != nil {
		return nil, connErr
	}
	return &StdDBusClient{conn: conn}, nil
}

func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

func (c *StdDBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.AddMatchSignal(options...)
}

func (c *StdDBusClient) Signal(ch chan<- *dbus.Signal) {
	c.conn.Signal(ch)
}

func (c *StdDBusClient) ListPlayers() ([]string, error) {
	return mpris.List(c.conn)
}

func (c *StdDBusClient) GetNameOwner(name string) (string, error) {
	var owner string
	ownerErr := c.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner)
	return owner, ownerErr
}

func (c *StdDBusClient) GetAll(busName, iface string) (map[string]dbus.Variant, error) {
	properties := map[string]dbus.Variant{}
	getAllErr := c.conn.Object(busName, ObjectPath).
		Call(PropertiesInterface+".GetAll", 0, iface).
		Store(&properties)
	return properties, getAllErr
}

func (c *StdDBusClient) GetProperty(busName, property string) (dbus.Variant, error) {
	return c.conn.Object(busName, ObjectPath).GetProperty(property)
}

func (c *StdDBusClient) SetProperty(busName, property string, value interface{}) error {
	return c.conn.Object(busName, ObjectPath).SetProperty(property, value)
}

func (c *StdDBusClient) Call(busName, method string, args ...interface{}) error {
	return c.conn.Object(busName, ObjectPath).Call(method, 0, args...).Err
}

func (c *StdDBusClient) Player(busName string) PlayerControl {
	return mpris.New(c.conn, busName)
}
