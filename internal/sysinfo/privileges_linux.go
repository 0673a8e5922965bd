//go:build linux

package sysinfo

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/sirupsen/logrus"
)

// DowngradePrivileges drops an elevated effective uid/gid back to the real
// ids of the invoking user. Plugins inherit the framework's credentials, so a
// host launched via a setuid wrapper must not pass elevation on to them.
// Best effort: failure is logged and startup continues.
func DowngradePrivileges(log *logrus.Logger) {
	ruid, euid := unix.Getuid(), unix.Geteuid()
	rgid, egid := unix.Getgid(), unix.Getegid()

	if egid != rgid {
		if err := syscall.Setegid(rgid); err != nil {
			log.WithError(err).Warn("could not drop effective gid")
		}
	}
	if euid != ruid {
		if err := syscall.Seteuid(ruid); err != nil {
			log.WithError(err).Warn("could not drop effective uid")
		} else {
			log.WithFields(logrus.Fields{"from": euid, "to": ruid}).Info("dropped elevated privileges")
		}
	}
}
