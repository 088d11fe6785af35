package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Body is the sparse field set of a packet. A missing key means "absent",
// never zero.
type Body map[string]interface{}

// Packet is the envelope exchanged with the companion device.
type Packet struct {
	Id        uuid.UUID `msgpack:"id"`
	Type      string    `msgpack:"type"`
	Timestamp time.Time `msgpack:"timestamp"`
	Body      Body      `msgpack:"body"`
	// Payload carries an optional binary attachment (album art).
	Payload []byte `msgpack:"payload,omitempty"`
}

func NewPacket(packetType string, body Body) *Packet {
	if body == nil {
		body = Body{}
	}
	return &Packet{
		Id:        uuid.New(),
		Type:      packetType,
		Timestamp: time.Now(),
		Body:      body,
	}
}

// -- ENCODERS & DECODERS

func (p *Packet) Encode() ([]byte, error) {
	if p == nil {
		return nil, errors.New("packet is nil")
	}
	return msgpack.Marshal(p)
}

func DecodePacket(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return nil, errors.New("empty packet data")
	}
	var packet Packet
	if unmarshalErr := msgpack.Unmarshal(data, &packet); unmarshalErr != nil {
		return nil, unmarshalErr
	}
	if packet.Type == "" {
		return nil, errors.New("packet has no type")
	}
	if packet.Body == nil {
		packet.Body = Body{}
	}
	return &packet, nil
}

// -- FIELD ACCESSORS
//
// Each accessor reports whether the field is present with a usable type, so
// a malformed field reads as absent instead of failing the whole packet.

func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

func (b Body) String(key string) (string, bool) {
	value, ok := b[key].(string)
	return value, ok
}

func (b Body) Bool(key string) (bool, bool) {
	value, ok := b[key].(bool)
	return value, ok
}

func (b Body) Int64(key string) (int64, bool) {
	switch value := b[key].(type) {
	case int:
		return int64(value), true
	case int8:
		return int64(value), true
	case int16:
		return int64(value), true
	case int32:
		return int64(value), true
	case int64:
		return value, true
	case uint:
		return int64(value), true
	case uint8:
		return int64(value), true
	case uint16:
		return int64(value), true
	case uint32:
		return int64(value), true
	case uint64:
		return int64(value), true
	case float32:
		return int64(value), true
	case float64:
		return int64(value), true
	}
	return 0, false
}

// Strings accepts both []string and the []interface{} produced by decoding.
func (b Body) Strings(key string) ([]string, bool) {
	switch value := b[key].(type) {
	case []string:
		return value, true
	case []interface{}:
		strs := make([]string, 0, len(value))
		for _, element := range value {
			str, ok := element.(string)
			if !ok {
				return nil, false
			}
			strs = append(strs, str)
		}
		return strs, true
	}
	return nil, false
}
