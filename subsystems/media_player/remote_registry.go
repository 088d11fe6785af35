package media_player

import (
	"context"
	"sort"
	"time"

	"github.com/Artiqlate/callisto/artcache"
	"github.com/Artiqlate/callisto/eventloop"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type RemoteRegistryConfig struct {
	Exposition ExpositionConfig
	// Cache stores received album art. Art is neither requested nor
	// accepted without one.
	Cache *artcache.Cache
	Now   func() time.Time
}

type remoteEntry struct {
	player     *RemotePlayer
	exposition *Exposition
	ctx        context.Context
	cancel     context.CancelFunc
}

// RemoteRegistry keeps one mirror per player announced by the companion
// device. All methods run on the loop.
type RemoteRegistry struct {
	logger    *zap.Logger
	loop      *eventloop.Loop
	sink      PacketSink
	config    RemoteRegistryConfig
	transfers *artcache.Transfers

	players          map[string]*remoteEntry
	supportsAlbumArt bool
}

func NewRemoteRegistry(loop *eventloop.Loop, sink PacketSink, config RemoteRegistryConfig, logger *zap.Logger) *RemoteRegistry {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RemoteRegistry{
		logger:    logger,
		loop:      loop,
		sink:      sink,
		config:    config,
		transfers: artcache.NewTransfers(config.Now),
		players:   map[string]*remoteEntry{},
	}
}

// HandlePacket routes an inbound update packet.
func (r *RemoteRegistry) HandlePacket(packet *models.Packet) {
	if names, ok := packet.Body.Strings(mp.FieldPlayerList); ok {
		if supported, ok := packet.Body.Bool(mp.FieldSupportAlbumArt); ok {
			r.supportsAlbumArt = supported
		}
		r.Reconcile(names)
		return
	}
	r.RouteUpdate(packet)
}

// Reconcile brings the mirror set in line with the announced names.
func (r *RemoteRegistry) Reconcile(names []string) {
	names = lo.Uniq(lo.Compact(names))
	removed, added := lo.Difference(lo.Keys(r.players), names)
	for _, name := range removed {
		r.destroy(name)
	}
	for _, name := range added {
		r.create(name)
	}
}

func (r *RemoteRegistry) create(name string) {
	ctx, cancel := context.WithCancel(context.Background())
	player := NewRemotePlayer(name, r.sink, r, r.config.Now)
	exposition := NewExposition(player, r.loop, r.config.Exposition, r.logger)
	r.players[name] = &remoteEntry{player: player, exposition: exposition, ctx: ctx, cancel: cancel}
	r.logger.Info("mirroring remote player", zap.String("player", name))

	exposition.Export(func(exportErr error) {
		if exportErr != nil {
			r.logger.Warn("remote player export failed", zap.String("player", name), zap.Error(exportErr))
			// Forget the mirror so the next player list creates it again
			if current, ok := r.players[name]; ok && current.exposition == exposition {
				r.destroy(name)
			}
			return
		}
		r.logger.Debug("remote player exported", zap.String("player", name), zap.String("busName", exposition.BusName()))
	})
	r.sink.Send(requestUpdatePacket(name))
}

func (r *RemoteRegistry) destroy(name string) {
	entry, ok := r.players[name]
	if !ok {
		return
	}
	delete(r.players, name)
	entry.cancel()
	entry.exposition.Close()
	r.logger.Info("remote player gone", zap.String("player", name))
}

// RouteUpdate hands a state update to its mirror. Updates for unknown players
// trigger a player list request instead.
func (r *RemoteRegistry) RouteUpdate(packet *models.Packet) {
	name, ok := packet.Body.String(mp.FieldPlayer)
	if !ok {
		r.logger.Debug("update without player", zap.Any("body", packet.Body))
		return
	}
	entry, ok := r.players[name]
	if !ok {
		r.logger.Debug("update for unknown player", zap.String("player", name))
		r.sink.Send(requestPlayerListPacket())
		return
	}
	if transferring, _ := packet.Body.Bool(mp.FieldTransferringArt); transferring {
		r.receiveArt(entry, packet.Body, packet.Payload)
		return
	}
	entry.player.HandleUpdate(packet.Body)
}

func (r *RemoteRegistry) resolveArt(player string, artUrl string) (string, bool) {
	if r.config.Cache == nil {
		return "", false
	}
	if path, ok := r.config.Cache.Lookup(artUrl); ok {
		return artcache.FileURI(path), true
	}
	if r.supportsAlbumArt && r.transfers.Request(artUrl) {
		r.sink.Send(requestAlbumArtPacket(player, artUrl))
	}
	return "", false
}

// receiveArt stores an art payload off the loop. The result is dropped if the
// mirror is gone by the time the write finishes.
func (r *RemoteRegistry) receiveArt(entry *remoteEntry, body models.Body, payload []byte) {
	artUrl, _ := body.String(mp.FieldAlbumArtUrl)
	if artUrl == "" || len(payload) == 0 || r.config.Cache == nil {
		r.logger.Debug("discarding album art transfer", zap.String("url", artUrl), zap.Int("size", len(payload)))
		return
	}
	if !r.transfers.Begin(artUrl) {
		return
	}
	cache, ctx := r.config.Cache, entry.ctx
	go func() {
		path, storeErr := cache.Store(artUrl, payload)
		r.loop.Post(func() {
			r.transfers.Finish(artUrl)
			if ctx.Err() != nil {
				return
			}
			if storeErr != nil {
				r.logger.Warn("storing album art failed", zap.String("url", artUrl), zap.Error(storeErr))
				return
			}
			entry.player.UpdateArt(artUrl, artcache.FileURI(path))
		})
	}()
}

// Clear drops every mirror, as on a transport disconnect.
func (r *RemoteRegistry) Clear() {
	for name := range r.players {
		r.destroy(name)
	}
	r.transfers.Reset()
	r.supportsAlbumArt = false
}

func (r *RemoteRegistry) Player(name string) (*RemotePlayer, bool) {
	entry, ok := r.players[name]
	if !ok {
		return nil, false
	}
	return entry.player, true
}

func (r *RemoteRegistry) exposition(name string) (*Exposition, bool) {
	entry, ok := r.players[name]
	if !ok {
		return nil, false
	}
	return entry.exposition, true
}

func (r *RemoteRegistry) Players() []string {
	names := lo.Keys(r.players)
	sort.Strings(names)
	return names
}
