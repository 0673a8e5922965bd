//go:build !linux

package sysinfo

import "github.com/sirupsen/logrus"

func DowngradePrivileges(log *logrus.Logger) {}
