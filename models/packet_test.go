package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePacketKeepsSparseBody(t *testing.T) {
	packet := NewPacket("mp:update", Body{
		"player":    "Foo",
		"canGoNext": true,
		"pos":       5000,
		"length":    int64(180000),
		"artist":    "A, B",
	})
	packet.Payload = []byte{0xde, 0xad}

	encoded, encodeErr := packet.Encode()
	require.NoError(t, encodeErr)
	decoded, decodeErr := DecodePacket(encoded)
	require.NoError(t, decodeErr)

	name, ok := decoded.Body.String("player")
	assert.True(t, ok)
	assert.Equal(t, "Foo", name)

	canGoNext, ok := decoded.Body.Bool("canGoNext")
	assert.True(t, ok)
	assert.True(t, canGoNext)

	pos, ok := decoded.Body.Int64("pos")
	assert.True(t, ok)
	assert.Equal(t, int64(5000), pos)

	length, ok := decoded.Body.Int64("length")
	assert.True(t, ok)
	assert.Equal(t, int64(180000), length)

	assert.False(t, decoded.Body.Has("volume"))
	assert.Equal(t, []byte{0xde, 0xad}, decoded.Payload)
}

func TestBodyAccessorsRejectWrongTypes(t *testing.T) {
	body := Body{
		"title":      42,
		"isPlaying":  "yes",
		"volume":     "loud",
		"playerList": []interface{}{"Foo", 7},
	}

	_, ok := body.String("title")
	assert.False(t, ok)
	_, ok = body.Bool("isPlaying")
	assert.False(t, ok)
	_, ok = body.Int64("volume")
	assert.False(t, ok)
	_, ok = body.Strings("playerList")
	assert.False(t, ok)

	names, ok := Body{"playerList": []interface{}{"Foo", "Bar"}}.Strings("playerList")
	assert.True(t, ok)
	assert.Equal(t, []string{"Foo", "Bar"}, names)
}

func TestDecodePacketErrors(t *testing.T) {
	_, decodeErr := DecodePacket(nil)
	assert.Error(t, decodeErr)

	_, decodeErr = DecodePacket([]byte{0xc1})
	assert.Error(t, decodeErr)

	untyped, encodeErr := (&Packet{}).Encode()
	require.NoError(t, encodeErr)
	_, decodeErr = DecodePacket(untyped)
	assert.Error(t, decodeErr)
}
