package callisto

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Artiqlate/callisto/comm"
	"github.com/Artiqlate/callisto/config"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/subsystems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type fakeMediaPlayer struct {
	setups    atomic.Int32
	routines  atomic.Int32
	shutdowns atomic.Int32
}

func (f *fakeMediaPlayer) Setup() error { f.setups.Add(1); return nil }
func (f *fakeMediaPlayer) Routine()     { f.routines.Add(1) }
func (f *fakeMediaPlayer) Shutdown()    { f.shutdowns.Add(1) }

func newTestServer(t *testing.T) (*ServerModule, *fakeMediaPlayer) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	cfg.Zeroconf.Enabled = false
	server, serverErr := NewServerModule(cfg, zap.NewNop())
	require.NoError(t, serverErr)

	fake := &fakeMediaPlayer{}
	server.subsystems = subsystems.NewServerSubsystem(func(*comm.BiDirMessageChannel) (subsystems.MediaPlayerSubsystem, error) {
		return fake, nil
	}, zap.NewNop())
	return server, fake
}

func TestServerModuleInitializesModules(t *testing.T) {
	server, fake := newTestServer(t)
	require.NoError(t, server.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, dialErr := websocket.Dial(ctx, fmt.Sprintf("ws://127.0.0.1:%d/", server.port()), nil)
	require.NoError(t, dialErr)

	data, encodeErr := models.NewPing("hello", []string{"mp", "notifications"}).Encode()
	require.NoError(t, encodeErr)
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, data))

	_, replyData, readErr := conn.Read(ctx)
	require.NoError(t, readErr)
	reply, decodeErr := models.DecodePacket(replyData)
	require.NoError(t, decodeErr)
	assert.Equal(t, models.InitType, reply.Type)
	enabled, _ := reply.Body.Strings("capabilities")
	assert.Equal(t, []string{"mp"}, enabled)

	// Losing the companion closes its modules
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return fake.shutdowns.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, server.Stop(ctx))
	assert.Equal(t, int32(1), fake.setups.Load())
	assert.Equal(t, int32(1), fake.shutdowns.Load())
	select {
	case <-server.Done():
	default:
		t.Fatal("server still running")
	}
}

func TestServerModuleSecondPingKeepsModule(t *testing.T) {
	server, fake := newTestServer(t)

	assert.Equal(t, []string{"mp"}, server.initializeModule([]string{"mp"}))
	assert.Equal(t, []string{"mp"}, server.initializeModule([]string{"mp"}))
	assert.Empty(t, server.initializeModule([]string{"unknown"}))
	assert.Equal(t, int32(1), fake.setups.Load())
	assert.True(t, server.subsystems.MediaPlayerEnabled())

	require.NoError(t, server.shutdown())
	assert.Equal(t, int32(1), fake.shutdowns.Load())
	assert.False(t, server.subsystems.MediaPlayerEnabled())
}

func TestServerModuleRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MediaPlayer.ExportPrefix = ""
	_, serverErr := NewServerModule(cfg, zap.NewNop())
	assert.Error(t, serverErr)
}

func TestServerModuleStopWithoutStart(t *testing.T) {
	server, _ := newTestServer(t)
	assert.NoError(t, server.Stop(context.Background()))
}
