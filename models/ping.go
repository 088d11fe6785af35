package models

import (
	"errors"
	"fmt"
)

const (
	PingType     = "ping"
	InitType     = "rinit"
	fieldMessage = "message"
	fieldModules = "capabilities"
)

// Ping is the handshake sent by the companion device. Capabilities lists the
// modules it wants enabled.
type Ping struct {
	Message      string
	Capabilities []string
}

func NewPing(message string, capabilities []string) *Packet {
	if capabilities == nil {
		capabilities = []string{}
	}
	return NewPacket(PingType, Body{
		fieldMessage: message,
		fieldModules: capabilities,
	})
}

func DecodePing(packet *Packet) (*Ping, error) {
	if packet == nil {
		return nil, errors.New("null packet")
	}
	if packet.Type != PingType {
		return nil, fmt.Errorf("packet type %q is not a ping", packet.Type)
	}
	message, _ := packet.Body.String(fieldMessage)
	capabilities, _ := packet.Body.Strings(fieldModules)
	return &Ping{Message: message, Capabilities: capabilities}, nil
}

// NewInitReply answers a ping with the modules that were enabled.
func NewInitReply(enabledModules []string) *Packet {
	if enabledModules == nil {
		enabledModules = []string{}
	}
	return NewPacket(InitType, Body{fieldModules: enabledModules})
}
