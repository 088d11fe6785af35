package media_player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Artiqlate/callisto/comm"
	"github.com/Artiqlate/callisto/models"
	"github.com/Artiqlate/callisto/models/mp"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus"
	"github.com/Artiqlate/callisto/subsystems/media_player/mprisbus/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestBridge(t *testing.T) (*Bridge, *comm.BiDirMessageChannel, *mocks.MockDBusClient) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(ctrl)
	channel := comm.NewBiDirMessageChannel(nil)
	bridge := NewBridge(channel, BridgeConfig{
		ExportPrefix: testBusPrefix,
		ArtCacheDir:  "/cache",
		FS:           afero.NewMemMapFs(),
		Connect:      func() (mprisbus.DBusClient, error) { return client, nil },
		Now:          newFakeClock().Now,
	}, zap.NewNop())
	return bridge, channel, client
}

func awaitPacket(t *testing.T, out <-chan *models.Packet, match func(*models.Packet) bool) *models.Packet {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case packet := <-out:
			if match(packet) {
				return packet
			}
		case <-deadline:
			t.Fatal("expected packet was not sent")
			return nil
		}
	}
}

func isPlayerList(packet *models.Packet) bool {
	return packet.Type == PacketTypeUpdate && packet.Body.Has(mp.FieldPlayerList)
}

func TestBridgeRoutesPackets(t *testing.T) {
	bridge, channel, client := newTestBridge(t)
	expectSubscribe(client)
	client.EXPECT().ListPlayers().Return([]string{}, nil)
	client.EXPECT().Close().Return(nil)

	require.NoError(t, bridge.Setup())
	go bridge.Routine()

	awaitPacket(t, channel.OutChannel, func(packet *models.Packet) bool {
		return packet.Type == PacketTypeRequest && packet.Body.Has(mp.FieldRequestList)
	})
	list := awaitPacket(t, channel.OutChannel, isPlayerList)
	names, _ := list.Body.Strings(mp.FieldPlayerList)
	assert.Empty(t, names)

	channel.InChannel <- playerListPacket([]string{"Foo"}, false)
	request := awaitPacket(t, channel.OutChannel, func(packet *models.Packet) bool {
		name, _ := packet.Body.String(mp.FieldPlayer)
		return packet.Type == PacketTypeRequest && name == "Foo"
	})
	requestNow, _ := request.Body.Bool(mp.FieldRequestNow)
	assert.True(t, requestNow)

	channel.InChannel <- newRequestPacket(models.Body{mp.FieldRequestList: true})
	awaitPacket(t, channel.OutChannel, isPlayerList)

	var mirrored []string
	require.NoError(t, bridge.loop.Invoke(context.Background(), func() {
		mirrored = bridge.registry.Players()
	}))
	assert.Equal(t, []string{"Foo"}, mirrored)

	bridge.Shutdown()
	assert.Empty(t, bridge.registry.Players())

	// Packets sent after shutdown are dropped
	bridge.sink.Send(requestPlayerListPacket())
	assert.Empty(t, channel.OutChannel)
}

func TestBridgeStopsOnCloseCommand(t *testing.T) {
	bridge, channel, client := newTestBridge(t)
	client.EXPECT().AddMatchSignal(gomock.Any()).Return(nil).AnyTimes()
	client.EXPECT().Signal(gomock.Any()).AnyTimes()
	client.EXPECT().ListPlayers().Return([]string{}, nil).AnyTimes()
	client.EXPECT().Close().Return(nil)

	require.NoError(t, bridge.Setup())
	stopped := make(chan struct{})
	go func() {
		bridge.Routine()
		close(stopped)
	}()

	channel.CommandChannel <- comm.CommandClose
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("routine did not stop")
	}
	bridge.Shutdown()
	bridge.Shutdown()
}

func TestBridgeSetupFailsWithoutBus(t *testing.T) {
	channel := comm.NewBiDirMessageChannel(nil)
	bridge := NewBridge(channel, BridgeConfig{
		Connect: func() (mprisbus.DBusClient, error) { return nil, errors.New("no session bus") },
	}, zap.NewNop())

	assert.ErrorContains(t, bridge.Setup(), "no session bus")
	// Routine refuses to run and Shutdown has nothing to release
	bridge.Routine()
	bridge.Shutdown()
}
