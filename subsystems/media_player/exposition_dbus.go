package media_player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

const busCallTimeout = 5 * time.Second

// queueForName waits behind an owner that is still releasing the name, as
// happens when a player is dropped and re-announced quickly.
const queueForName dbus.RequestNameFlags = 0

// BusName is the well-known name the player is claimed under.
func (e *Exposition) BusName() string {
	return strings.TrimSuffix(e.config.BusNamePrefix, ".") + "." + sanitizeBusElement(e.player.Name())
}

// sanitizeBusElement maps a player name onto a valid bus name element.
func sanitizeBusElement(name string) string {
	var builder strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteByte('_')
		}
	}
	element := builder.String()
	if element == "" {
		return "_"
	}
	if element[0] >= '0' && element[0] <= '9' {
		element = "_" + element
	}
	return element
}

// -- EXPORT

// Export claims the bus name and exports the object off the loop. done runs
// on the loop unless a teardown arrived meanwhile.
func (e *Exposition) Export(done func(error)) {
	if !e.lifecycle.BeginExport() {
		return
	}
	if e.config.Dial == nil {
		e.lifecycle.CompleteExport(true)
		done(nil)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	busName := e.BusName()
	go func() {
		conn, exportErr := e.connect(busName)
		e.loop.Post(func() {
			e.exportFinished(ctx, conn, busName, exportErr, done)
		})
	}()
}

func (e *Exposition) exportFinished(ctx context.Context, conn mprisbus.ExportConn, busName string, exportErr error, done func(error)) {
	succeeded := exportErr == nil && ctx.Err() == nil
	if teardown := e.lifecycle.CompleteExport(succeeded); teardown {
		e.logger.Debug("player vanished during export", zap.String("busName", busName))
		e.releaseConn(conn, busName)
		return
	}
	if !succeeded {
		if conn != nil {
			e.releaseConn(conn, busName)
		}
		if exportErr == nil {
			exportErr = ctx.Err()
		}
		done(exportErr)
		return
	}
	e.conn = conn
	e.busName = busName
	done(nil)
}

func (e *Exposition) connect(busName string) (mprisbus.ExportConn, error) {
	conn, dialErr := e.config.Dial()
	if dialErr != nil {
		return nil, fmt.Errorf("connect session bus: %w", dialErr)
	}
	fail := func(err error) (mprisbus.ExportConn, error) {
		_ = conn.Close()
		return nil, err
	}

	exports := []struct {
		object interface{}
		iface  string
	}{
		{rootObject{e}, mprisbus.RootInterface},
		{playerObject{e}, mprisbus.PlayerInterface},
		{propertiesObject{e}, mprisbus.PropertiesInterface},
		{introspect.NewIntrospectable(introspectNode()), mprisbus.IntrospectInterface},
	}
	for _, export := range exports {
		if exportErr := conn.Export(export.object, mprisbus.ObjectPath, export.iface); exportErr != nil {
			return fail(fmt.Errorf("export %s: %w", export.iface, exportErr))
		}
	}

	reply, nameErr := conn.RequestName(busName, queueForName)
	if nameErr != nil {
		return fail(fmt.Errorf("request name %s: %w", busName, nameErr))
	}
	switch reply {
	case dbus.RequestNameReplyPrimaryOwner, dbus.RequestNameReplyAlreadyOwner:
	case dbus.RequestNameReplyInQueue:
		// The bus hands the name over once the previous owner lets go
		e.logger.Debug("queued for bus name", zap.String("busName", busName))
	default:
		return fail(fmt.Errorf("%w: %s", ErrNameTaken, busName))
	}
	return conn, nil
}

// Unexport releases the bus name. During an export the teardown is deferred
// until the export completes.
func (e *Exposition) Unexport() {
	if e.cancel != nil {
		e.cancel()
	}
	if !e.lifecycle.Disappear() {
		return
	}
	conn, busName := e.conn, e.busName
	e.conn = nil
	e.releaseConn(conn, busName)
}

func (e *Exposition) releaseConn(conn mprisbus.ExportConn, busName string) {
	if conn == nil {
		e.lifecycle.CompleteTeardown()
		return
	}
	go func() {
		if _, releaseErr := conn.ReleaseName(busName); releaseErr != nil {
			e.logger.Debug("release name failed", zap.String("busName", busName), zap.Error(releaseErr))
		}
		if closeErr := conn.Close(); closeErr != nil {
			e.logger.Debug("close export connection failed", zap.Error(closeErr))
		}
		e.loop.Post(e.lifecycle.CompleteTeardown)
	}()
}

// -- BUS ADAPTERS

func (e *Exposition) invoke(fn func() error) *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), busCallTimeout)
	defer cancel()
	var callErr error
	if invokeErr := e.loop.Invoke(ctx, func() { callErr = fn() }); invokeErr != nil {
		return dbus.MakeFailedError(invokeErr)
	}
	return toDBusError(callErr, mprisbus.ErrorUnknownMethod)
}

func toDBusError(err error, notSupported string) *dbus.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotSupported):
		return dbus.NewError(notSupported, []interface{}{err.Error()})
	case errors.Is(err, ErrReadOnly):
		return dbus.NewError(mprisbus.ErrorPropertyReadOnly, []interface{}{err.Error()})
	case errors.Is(err, ErrInvalidArgs):
		return dbus.NewError(mprisbus.ErrorInvalidArgs, []interface{}{err.Error()})
	default:
		return dbus.MakeFailedError(err)
	}
}

type rootObject struct{ e *Exposition }

func (o rootObject) Raise() *dbus.Error { return o.call("Raise") }
func (o rootObject) Quit() *dbus.Error  { return o.call("Quit") }

func (o rootObject) call(method string) *dbus.Error {
	return o.e.invoke(func() error { return o.e.Call(mprisbus.RootInterface, method) })
}

type playerObject struct{ e *Exposition }

func (o playerObject) Next() *dbus.Error      { return o.call("Next") }
func (o playerObject) Previous() *dbus.Error  { return o.call("Previous") }
func (o playerObject) Pause() *dbus.Error     { return o.call("Pause") }
func (o playerObject) PlayPause() *dbus.Error { return o.call("PlayPause") }
func (o playerObject) Stop() *dbus.Error      { return o.call("Stop") }
func (o playerObject) Play() *dbus.Error      { return o.call("Play") }

func (o playerObject) Seek(offset int64) *dbus.Error {
	return o.call("Seek", offset)
}

func (o playerObject) SetPosition(trackId dbus.ObjectPath, position int64) *dbus.Error {
	return o.call("SetPosition", trackId, position)
}

func (o playerObject) OpenUri(uri string) *dbus.Error {
	return o.call("OpenUri", uri)
}

func (o playerObject) call(method string, args ...interface{}) *dbus.Error {
	return o.e.invoke(func() error { return o.e.Call(mprisbus.PlayerInterface, method, args...) })
}

type propertiesObject struct{ e *Exposition }

func (o propertiesObject) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	var value dbus.Variant
	busErr := o.e.invoke(func() (err error) {
		value, err = o.e.Get(iface, property)
		return err
	})
	if busErr != nil {
		return dbus.Variant{}, propertyError(busErr)
	}
	return value, nil
}

func (o propertiesObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	var values map[string]dbus.Variant
	busErr := o.e.invoke(func() (err error) {
		values, err = o.e.GetAll(iface)
		return err
	})
	if busErr != nil {
		return nil, propertyError(busErr)
	}
	return values, nil
}

func (o propertiesObject) Set(iface, property string, value dbus.Variant) *dbus.Error {
	return propertyError(o.e.invoke(func() error { return o.e.Set(iface, property, value) }))
}

// propertyError reports unsupported properties as UnknownProperty.
func propertyError(busErr *dbus.Error) *dbus.Error {
	if busErr != nil && busErr.Name == mprisbus.ErrorUnknownMethod {
		return dbus.NewError(mprisbus.ErrorUnknownProperty, busErr.Body)
	}
	return busErr
}

// -- INTROSPECTION

func introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: string(mprisbus.ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name: mprisbus.RootInterface,
				Methods: []introspect.Method{
					{Name: "Raise"},
					{Name: "Quit"},
				},
				Properties: introspectProperties(mprisbus.RootInterface),
			},
			{
				Name: mprisbus.PlayerInterface,
				Methods: []introspect.Method{
					{Name: "Next"},
					{Name: "Previous"},
					{Name: "Pause"},
					{Name: "PlayPause"},
					{Name: "Stop"},
					{Name: "Play"},
					{Name: "Seek", Args: []introspect.Arg{{Name: "Offset", Type: "x", Direction: "in"}}},
					{Name: "SetPosition", Args: []introspect.Arg{
						{Name: "TrackId", Type: "o", Direction: "in"},
						{Name: "Position", Type: "x", Direction: "in"},
					}},
					{Name: "OpenUri", Args: []introspect.Arg{{Name: "Uri", Type: "s", Direction: "in"}}},
				},
				Signals: []introspect.Signal{
					{Name: "Seeked", Args: []introspect.Arg{{Name: "Position", Type: "x"}}},
				},
				Properties: introspectProperties(mprisbus.PlayerInterface),
			},
		},
	}
}

func introspectProperties(iface string) []introspect.Property {
	specs := exposedProperties[iface]
	properties := make([]introspect.Property, 0, len(specs))
	for _, spec := range specs {
		access := "read"
		if spec.writable {
			access = "readwrite"
		}
		properties = append(properties, introspect.Property{Name: spec.name, Type: spec.signature, Access: access})
	}
	return properties
}
