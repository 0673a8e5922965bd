//go:build linux

package sysinfo

import (
	"golang.org/x/sys/unix"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// osVersion reads the kernel release via uname and keeps the numeric prefix,
// so "6.8.0-45-generic" becomes "6.8.0".
func osVersion() api.Version {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	release := unix.ByteSliceToString(uts.Release[:])
	return api.Version(numericPrefix(release))
}
