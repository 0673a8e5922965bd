package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry point names probed with GetFunction before a plugin is registered.
// A binary answering the plugin service but missing any of these is rejected.
const (
	EntryGetInfo    = "getInfo"
	EntryRegister   = "register"
	EntryDeregister = "deregister"
)

// handshakePrefix starts the single line a plugin prints on stdout once its
// service is listening. The "1" is the handshake format version.
const handshakePrefix = "GPF-PLUGIN|1|"

// Handshake formats the startup line for a plugin listening on port.
func Handshake(port int) string {
	return handshakePrefix + strconv.Itoa(port)
}

// ParseHandshake extracts the port from a plugin startup line.
func ParseHandshake(line string) (int, error) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, handshakePrefix)
	if !ok {
		return 0, fmt.Errorf("not a plugin handshake line: %q", line)
	}
	port, err := strconv.Atoi(rest)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("bad handshake port in %q", line)
	}
	return port, nil
}
