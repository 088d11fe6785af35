package utils

import (
	"fmt"
	"strings"
)

// GenerateMethod builds a "subsystem:method" packet type.
func GenerateMethod(module string, method string) string {
	return fmt.Sprintf("%s:%s", module, method)
}

// SplitMethod parses a packet type into subsystem and method.
//
// Consider these two types: "ping" and "mp:update". In the first one there is
// no subsystem, so the whole value is returned as the subsystem with an empty
// method. In the second one "mp" is the subsystem and "update" the method.
func SplitMethod(packetType string) (subsystem string, method string) {
	subsystem, method, _ = strings.Cut(packetType, ":")
	return subsystem, method
}
