package api

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// InterfaceType identifies a plugin interface independently of its version.
type InterfaceType = uuid.UUID

// PluginID names a plugin. The checksum is derived from the UUID text so a
// hand-assembled or corrupted identity is detectable without a lookup.
type PluginID struct {
	UID uuid.UUID `json:"uid"`
	CRC uint32    `json:"crc"`
}

// checksum folds the 64-bit hash of the UUID string into 24 bits.
func checksum(u uuid.UUID) uint32 {
	h := xxhash.Sum64String(u.String())
	return uint32(h^h>>24^h>>48) & 0xffffff
}

// NewPluginID derives the identity for a plugin UUID, checksum included.
func NewPluginID(u uuid.UUID) PluginID {
	return PluginID{UID: u, CRC: checksum(u)}
}

// ParsePluginID parses a UUID string and derives its checksum.
func ParsePluginID(s string) (PluginID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PluginID{}, fmt.Errorf("invalid plugin id %q: %w", s, err)
	}
	return NewPluginID(u), nil
}

// MustPluginID is ParsePluginID for compile-time constants; it panics on a
// malformed string.
func MustPluginID(s string) PluginID {
	id, err := ParsePluginID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether the checksum matches the UUID.
func (id PluginID) Valid() bool {
	return id.CRC == checksum(id.UID)
}

// IsZero reports whether id is the empty identity.
func (id PluginID) IsZero() bool {
	return id.UID == uuid.Nil && id.CRC == 0
}

func (id PluginID) String() string {
	return fmt.Sprintf("%s/%06x", id.UID, id.CRC)
}
