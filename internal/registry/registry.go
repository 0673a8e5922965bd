// Package registry tracks every interface published to the framework, with
// per-interface reference counts and the bookkeeping that decides when a
// release should take the owning plugin down with it.
package registry

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// Flags modify how an entry participates in lifetime accounting.
type Flags uint32

const (
	FlagNone Flags = 0
	// FlagNotRefCounted marks framework-owned singletons. They are handed out
	// without counting, never trigger an unload, and always block one.
	FlagNotRefCounted Flags = 1 << iota
)

type entry struct {
	iface api.Interface
	flags Flags
	refs  int
}

func (e *entry) counted() bool { return e.flags&FlagNotRefCounted == 0 }

// Registry maps plugin identities to their published interfaces. All methods
// are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	log     *logrus.Logger
	entries map[api.PluginID][]*entry
}

func New(log *logrus.Logger) *Registry {
	return &Registry{
		log:     log,
		entries: make(map[api.PluginID][]*entry),
	}
}

// Add publishes an interface under id. It returns false when the identity
// already has an entry of the same type, leaving the existing entry in place.
func (r *Registry) Add(id api.PluginID, iface api.Interface, flags Flags) bool {
	h := iface.Header()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries[id] {
		if e.iface.Header().Type == h.Type {
			r.log.WithFields(logrus.Fields{
				"plugin":    id,
				"interface": h,
			}).Warn("interface already registered, ignoring duplicate")
			return false
		}
	}

	r.entries[id] = append(r.entries[id], &entry{iface: iface, flags: flags})
	r.log.WithFields(logrus.Fields{
		"plugin":    id,
		"interface": h,
		"counted":   flags&FlagNotRefCounted == 0,
	}).Debug("interface registered")
	return true
}

// Get hands out the interface of the given type, incrementing the reference
// count on counted entries. Versions are deliberately not gatekept here: an
// older implementation is still returned, and the caller reads the header it
// got before touching anything version-dependent. Returns nil when the type
// is not registered.
func (r *Registry) Get(id api.PluginID, t api.InterfaceType) api.Interface {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries[id] {
		if e.iface.Header().Type != t {
			continue
		}
		if e.counted() {
			e.refs++
		}
		return e.iface
	}
	return nil
}

// ReleaseOutcome reports what a Release did and what the caller must do next.
type ReleaseOutcome struct {
	// Unload is set when the released entry hit zero references and nothing
	// else keeps the plugin alive. The caller owns the actual unload.
	Unload bool
}

// Release decrements the reference count of the entry of the given type.
//
// An entry that reaches zero stays in the table so a later Get revives it
// without reloading the plugin. Unload is signalled only when the drop to
// zero leaves no other entry of the identity held or uncounted.
func (r *Registry) Release(id api.PluginID, t api.InterfaceType) (ReleaseOutcome, api.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.entries[id]
	if !ok {
		return ReleaseOutcome{}, api.ResultMissingInterface
	}

	var (
		found       *entry
		reachedZero bool
		remaining   bool
	)
	for _, e := range list {
		if found == nil && e.iface.Header().Type == t {
			found = e
			if !e.counted() {
				// Singletons are released without accounting.
				continue
			}
			if e.refs <= 0 {
				r.log.WithFields(logrus.Fields{
					"plugin":    id,
					"interface": e.iface.Header(),
				}).Error("release without matching acquire")
				return ReleaseOutcome{}, api.ResultInvalidState
			}
			e.refs--
			if e.refs == 0 {
				reachedZero = true
			}
			continue
		}
		if !e.counted() || e.refs > 0 {
			remaining = true
		}
	}
	if found == nil {
		return ReleaseOutcome{}, api.ResultMissingInterface
	}

	return ReleaseOutcome{Unload: reachedZero && !remaining}, api.ResultOk
}

// Count returns how many interfaces are registered under id.
func (r *Registry) Count(id api.PluginID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[id])
}

// Refs returns the current reference count of one entry, or -1 when absent.
// Not-counted entries report 0.
func (r *Registry) Refs(id api.PluginID, t api.InterfaceType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries[id] {
		if e.iface.Header().Type == t {
			return e.refs
		}
	}
	return -1
}

// Leaks lists the counted interfaces of id still holding references. Used by
// the shutdown sweep to report hosts that never balanced their acquires.
func (r *Registry) Leaks(id api.PluginID) []api.Header {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var leaked []api.Header
	for _, e := range r.entries[id] {
		if e.counted() && e.refs > 0 {
			leaked = append(leaked, e.iface.Header())
		}
	}
	return leaked
}

// Drop removes every entry of id. Called after the owning plugin is unloaded.
func (r *Registry) Drop(id api.PluginID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Identities returns every identity with at least one registered interface.
func (r *Registry) Identities() []api.PluginID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]api.PluginID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
