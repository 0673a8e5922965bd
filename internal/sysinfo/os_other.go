//go:build !linux

package sysinfo

import "github.com/example/grpc-plugin-framework/pkg/api"

func osVersion() api.Version { return "" }
