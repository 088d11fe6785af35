package media_player

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Artiqlate/callisto/eventloop"
	"github.com/Artiqlate/callisto/media"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/godbus/dbus/v5"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const signalBuffer = 64

type DiscoveryConfig struct {
	// ExportPrefix is the prefix mirrors are exported under. Players below
	// it are our own and never forwarded.
	ExportPrefix string
	// FS serves local album art files.
	FS  afero.Fs
	Now func() time.Time
}

type localEntry struct {
	player    *LocalPlayer
	forwarder *Forwarder
	owner     string
}

// Discovery tracks the MPRIS players of the local session bus and keeps a
// Forwarder for each. All methods except Start's background work run on the
// loop.
type Discovery struct {
	logger *zap.Logger
	loop   *eventloop.Loop
	sink   PacketSink
	client mprisbus.DBusClient
	config DiscoveryConfig

	players map[string]*localEntry
	// owners maps unique connection names to well-known bus names.
	owners  map[string]string
	signals chan *dbus.Signal

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDiscovery(client mprisbus.DBusClient, loop *eventloop.Loop, sink PacketSink, config DiscoveryConfig, logger *zap.Logger) *Discovery {
	if config.FS == nil {
		config.FS = afero.NewOsFs()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Discovery{
		logger:  logger,
		loop:    loop,
		sink:    sink,
		client:  client,
		config:  config,
		players: map[string]*localEntry{},
		owners:  map[string]string{},
		signals: make(chan *dbus.Signal, signalBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to player signals and enumerates the existing players.
// done runs on the loop once the initial players are registered.
func (d *Discovery) Start(done func(error)) {
	go func() {
		names, startErr := d.subscribe()
		owners := make(map[string]string, len(names))
		for _, name := range names {
			owner, ownerErr := d.client.GetNameOwner(name)
			if ownerErr != nil {
				d.logger.Debug("player has no owner", zap.String("busName", name), zap.Error(ownerErr))
				continue
			}
			owners[name] = owner
		}
		d.loop.Post(func() {
			if d.ctx.Err() != nil {
				return
			}
			for _, name := range names {
				if owner, ok := owners[name]; ok {
					d.addPlayer(name, owner)
				}
			}
			if done != nil {
				done(startErr)
			}
		})
	}()
}

func (d *Discovery) subscribe() ([]string, error) {
	matches := [][]dbus.MatchOption{
		{
			dbus.WithMatchSender("org.freedesktop.DBus"),
			dbus.WithMatchMember("NameOwnerChanged"),
		},
		{
			dbus.WithMatchObjectPath(mprisbus.ObjectPath),
			dbus.WithMatchInterface(mprisbus.PropertiesInterface),
			dbus.WithMatchMember("PropertiesChanged"),
		},
		{
			dbus.WithMatchObjectPath(mprisbus.ObjectPath),
			dbus.WithMatchInterface(mprisbus.PlayerInterface),
			dbus.WithMatchMember("Seeked"),
		},
	}
	for _, options := range matches {
		if matchErr := d.client.AddMatchSignal(options...); matchErr != nil {
			return nil, fmt.Errorf("add signal match: %w", matchErr)
		}
	}
	d.client.Signal(d.signals)
	go d.pump()

	names, listErr := d.client.ListPlayers()
	if listErr != nil {
		return nil, fmt.Errorf("list players: %w", listErr)
	}
	return lo.Reject(names, func(name string, _ int) bool { return d.ownExport(name) }), nil
}

func (d *Discovery) pump() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case signal, ok := <-d.signals:
			if !ok {
				return
			}
			d.loop.Post(func() { d.handleSignal(signal) })
		}
	}
}

func (d *Discovery) ownExport(busName string) bool {
	prefix := d.config.ExportPrefix
	return prefix != "" && (busName == prefix || strings.HasPrefix(busName, prefix+"."))
}

func (d *Discovery) handleSignal(signal *dbus.Signal) {
	if d.ctx.Err() != nil {
		return
	}
	switch signal.Name {
	case mprisbus.SignalNameOwnerChanged:
		if len(signal.Body) != 3 {
			return
		}
		name, _ := signal.Body[0].(string)
		oldOwner, _ := signal.Body[1].(string)
		newOwner, _ := signal.Body[2].(string)
		d.handleOwnerChange(name, oldOwner, newOwner)
	case mprisbus.SignalPropertiesChanged:
		entry := d.bySender(signal)
		if entry == nil || len(signal.Body) < 3 {
			return
		}
		iface, _ := signal.Body[0].(string)
		changed, _ := signal.Body[1].(map[string]dbus.Variant)
		invalidated, _ := signal.Body[2].([]string)
		entry.player.HandlePropertiesChanged(iface, changed, invalidated)
	case mprisbus.SignalSeeked:
		entry := d.bySender(signal)
		if entry == nil || len(signal.Body) < 1 {
			return
		}
		if micros, ok := signal.Body[0].(int64); ok {
			entry.player.HandleSeeked(micros)
		}
	}
}

func (d *Discovery) handleOwnerChange(name, oldOwner, newOwner string) {
	if !strings.HasPrefix(name, mprisbus.BusNamePrefix) || d.ownExport(name) {
		return
	}
	if oldOwner != "" {
		delete(d.owners, oldOwner)
	}
	if newOwner == "" {
		d.removePlayer(name)
		return
	}
	if entry, ok := d.players[name]; ok {
		entry.owner = newOwner
		d.owners[newOwner] = name
		return
	}
	d.addPlayer(name, newOwner)
}

func (d *Discovery) bySender(signal *dbus.Signal) *localEntry {
	if signal.Path != mprisbus.ObjectPath {
		return nil
	}
	busName, ok := d.owners[signal.Sender]
	if !ok {
		return nil
	}
	return d.players[busName]
}

func (d *Discovery) addPlayer(busName string, owner string) {
	if _, exists := d.players[busName]; exists {
		return
	}
	player := NewLocalPlayer(busName, d.client, d.loop, d.config.Now, d.logger)
	forwarder := NewForwarder(player, d.loop, d.sink, d.config.FS, d.logger)
	entry := &localEntry{player: player, forwarder: forwarder, owner: owner}
	d.players[busName] = entry
	d.owners[owner] = busName
	d.logger.Info("local player appeared", zap.String("busName", busName))

	player.Subscribe(func(change media.Change) {
		if change.Has(media.ChangeName) && forwarder.Ready() {
			d.SendPlayerList()
		}
	})

	forwarder.lifecycle.Register()
	forwarder.lifecycle.BeginExport()
	player.Refresh(func(refreshErr error) {
		if teardown := forwarder.lifecycle.CompleteExport(refreshErr == nil); teardown {
			player.Close()
			forwarder.lifecycle.CompleteTeardown()
			return
		}
		if refreshErr != nil {
			d.logger.Warn("reading local player failed", zap.String("busName", busName), zap.Error(refreshErr))
			d.removePlayer(busName)
			return
		}
		d.SendPlayerList()
	})
}

func (d *Discovery) removePlayer(busName string) {
	entry, ok := d.players[busName]
	if !ok {
		return
	}
	delete(d.players, busName)
	if d.owners[entry.owner] == busName {
		delete(d.owners, entry.owner)
	}
	wasReady := entry.forwarder.Ready()
	entry.forwarder.Close()
	// While refreshing, teardown happens when the refresh completes
	if entry.forwarder.lifecycle.Disappear() {
		entry.player.Close()
		entry.forwarder.lifecycle.CompleteTeardown()
	}
	d.logger.Info("local player gone", zap.String("busName", busName))
	if wasReady {
		d.SendPlayerList()
	}
}

// PlayerNames lists the announced local players.
func (d *Discovery) PlayerNames() []string {
	names := []string{}
	for _, entry := range d.players {
		if entry.forwarder.Ready() {
			names = append(names, entry.forwarder.Name())
		}
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

func (d *Discovery) SendPlayerList() {
	d.sink.Send(playerListPacket(d.PlayerNames(), true))
}

func (d *Discovery) byName(name string) *localEntry {
	busNames := lo.Keys(d.players)
	sort.Strings(busNames)
	for _, busName := range busNames {
		entry := d.players[busName]
		if entry.forwarder.Ready() && entry.forwarder.Name() == name {
			return entry
		}
	}
	return nil
}

// HandleRequest answers a request packet from the device.
func (d *Discovery) HandleRequest(packet *models.Packet) {
	if requestList, _ := packet.Body.Bool(mp.FieldRequestList); requestList {
		d.SendPlayerList()
	}
	name, ok := packet.Body.String(mp.FieldPlayer)
	if !ok {
		return
	}
	entry := d.byName(name)
	if entry == nil {
		d.logger.Debug("request for unknown local player", zap.String("player", name))
		d.SendPlayerList()
		return
	}
	entry.forwarder.HandleRequest(packet.Body)
}

// Stop releases every forwarder.
func (d *Discovery) Stop() {
	d.cancel()
	for busName, entry := range d.players {
		entry.forwarder.Close()
		entry.player.Close()
		delete(d.players, busName)
	}
	d.owners = map[string]string{}
}
