package api

import (
	"context"
	"fmt"
)

// Header identifies one versioned interface. Version counts breaking
// revisions; compatible additions keep the version and extend the function
// set, so a caller asking for version N accepts any implementation whose
// version is >= N.
type Header struct {
	Type    InterfaceType `json:"type"`
	Version uint32        `json:"version"`
}

func (h Header) String() string {
	return fmt.Sprintf("%s v%d", h.Type, h.Version)
}

// Interface is a live handle to a plugin interface. Implementations may be
// local (framework singletons) or proxies for an interface served by a plugin
// process.
type Interface interface {
	Header() Header
	// Call invokes a named function with a JSON payload and returns the JSON
	// reply. Unknown function names return an error.
	Call(ctx context.Context, function string, payload []byte) ([]byte, error)
}

// Func is a single callable exposed through a FuncInterface.
type Func func(ctx context.Context, payload []byte) ([]byte, error)

// FuncInterface adapts a function table to Interface. It backs the framework
// singletons and in-process plugin interfaces.
type FuncInterface struct {
	header Header
	fns    map[string]Func
}

// NewFuncInterface builds an Interface from a header and a function table.
func NewFuncInterface(h Header, fns map[string]Func) *FuncInterface {
	return &FuncInterface{header: h, fns: fns}
}

func (f *FuncInterface) Header() Header { return f.header }

func (f *FuncInterface) Call(ctx context.Context, function string, payload []byte) ([]byte, error) {
	fn, ok := f.fns[function]
	if !ok {
		return nil, fmt.Errorf("interface %s has no function %q", f.header, function)
	}
	return fn(ctx, payload)
}
