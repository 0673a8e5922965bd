package api

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a dotted version string ("1.2.3"). The zero value compares lower
// than any real version.
type Version string

// NewVersion builds a Version from its numeric components.
func NewVersion(major, minor, patch uint32) Version {
	return Version(fmt.Sprintf("%d.%d.%d", major, minor, patch))
}

// canonical converts v into the form golang.org/x/mod/semver expects: a
// leading "v" and exactly three components. Missing components default to 0.
func (v Version) canonical() string {
	s := strings.TrimPrefix(string(v), "v")
	if s == "" {
		s = "0"
	}
	for strings.Count(s, ".") < 2 {
		s += ".0"
	}
	return "v" + s
}

// Compare returns -1, 0 or +1 ordering v against other.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.canonical(), other.canonical())
}

// Valid reports whether v parses as a version.
func (v Version) Valid() bool {
	return semver.IsValid(v.canonical())
}

// Parts splits v into its numeric components. Invalid components read as 0.
func (v Version) Parts() (major, minor, patch uint32) {
	fields := strings.SplitN(strings.TrimPrefix(string(v), "v"), ".", 3)
	parse := func(i int) uint32 {
		if i >= len(fields) {
			return 0
		}
		n, err := strconv.ParseUint(strings.TrimSpace(fields[i]), 10, 32)
		if err != nil {
			return 0
		}
		return uint32(n)
	}
	return parse(0), parse(1), parse(2)
}

func (v Version) String() string { return string(v) }

// sdkVersionMagic tags the low 16 bits of a packed SDK version token so that a
// caller passing a plain version number (or garbage) is caught at Init.
const sdkVersionMagic = 0xab15

// PackSDKVersion encodes a version triple into the token hosts pass to Init.
// Layout: major<<48 | minor<<32 | patch<<16 | magic.
func PackSDKVersion(v Version) uint64 {
	major, minor, patch := v.Parts()
	return uint64(major)<<48 | uint64(minor)<<32 | uint64(patch)<<16 | sdkVersionMagic
}

// UnpackSDKVersion decodes a token produced by PackSDKVersion. ok is false
// when the magic does not match.
func UnpackSDKVersion(token uint64) (v Version, ok bool) {
	if token&0xffff != sdkVersionMagic {
		return "", false
	}
	return NewVersion(
		uint32(token>>48&0xffff),
		uint32(token>>32&0xffff),
		uint32(token>>16&0xffff),
	), true
}
