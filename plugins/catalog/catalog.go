// Package catalog holds the well-known identities of the bundled sample
// plugins, shared between the plugin binaries and hosts that want to load
// them without parsing descriptions first.
package catalog

import (
	"github.com/google/uuid"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// Sample plugin identities.
var (
	EchoID  = api.MustPluginID("3f2c9a1e-7b64-4d08-9c5a-2e81f0d6b437")
	RelayID = api.MustPluginID("9d4b7e20-1a5f-4c93-b6d8-05e3a2c7f918")
)

// Interface types exported by the sample plugins.
var (
	// TypeText is a text-transformation interface: echo, upper, reverse.
	TypeText = uuid.MustParse("6e1f3b82-4c07-4a59-8db2-91c5e7a0f364")

	// TypeRelay forwards text through the text interface of another plugin,
	// exercising the cross-plugin call path.
	TypeRelay = uuid.MustParse("b85d2c49-0e76-4f13-a9c1-37d6f4e8b052")
)

// TextRequest is the payload for every TypeText function.
type TextRequest struct {
	Text string `json:"text"`
}

// TextResponse is the reply for every TypeText function.
type TextResponse struct {
	Text string `json:"text"`
}

// RelayRequest asks the relay to transform text through its upstream.
type RelayRequest struct {
	Text string `json:"text"`
	// Function is the upstream text function to apply, "upper" by default.
	Function string `json:"function,omitempty"`
}

// RelayResponse carries the transformed text and where it was processed.
type RelayResponse struct {
	Text     string `json:"text"`
	Upstream string `json:"upstream"`
}
