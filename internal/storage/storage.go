// Package storage persists dialog contexts across pluggable backends.
// An Adapter implements raw per-field read/write primitives for one
// backend; the Engine layers the update scheme on top so that repeat
// writes of a growing context only touch the delta.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stupiduntilnot/contextstore/internal/scheme"
)

// Field-name views of the update scheme, shared by the backends that
// need to enumerate physical locations (Bound, Delete, DeleteAll).
func appendFieldNames() []string { return scheme.AppendFields() }
func valueFieldNames() []string  { return scheme.ValueFields() }

// Adapter is the per-backend persistence primitive set. Implementations
// must be safe for concurrent use across distinct context ids; callers
// serialize operations on one id.
//
// Payloads are opaque byte slices produced by the update scheme. Value
// fields hold one payload per (id, field); append fields hold one
// payload per (id, field, turn index).
type Adapter interface {
	// PutValue stores the whole payload of a value field, replacing any
	// previous payload.
	PutValue(ctx context.Context, id, field string, data []byte) error

	// PutAppend stores the given turn-indexed entries of an append
	// field. Entries at already-present indices are overwritten;
	// entries at other indices are untouched.
	PutAppend(ctx context.Context, id, field string, entries map[int][]byte) error

	// GetValue loads a value field payload. Returns ErrNotFound when
	// the field has never been written for this id.
	GetValue(ctx context.Context, id, field string) ([]byte, error)

	// GetAppend loads every stored entry of an append field. An absent
	// id yields an empty map, not an error.
	GetAppend(ctx context.Context, id, field string) (map[int][]byte, error)

	// Bound returns the highest turn index stored for id across append
	// fields, or -1 when none exist.
	Bound(ctx context.Context, id string) (int, error)

	// Delete removes everything stored under id. Deleting an absent id
	// is a no-op.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every context owned by this storage instance,
	// and only those: shared namespaces on the backend are untouched.
	DeleteAll(ctx context.Context) error

	// Keys lists the context ids currently stored.
	Keys(ctx context.Context) ([]string, error)

	// FullPath is a stable descriptive string naming the backend and
	// its connection target, used for logging and benchmark labels.
	FullPath() string

	// Close releases backend connections. Safe to call more than once.
	Close() error
}

// Opener constructs an Adapter from a connection URI.
type Opener func(ctx context.Context, uri string) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes a backend available under the given URI scheme. It is
// called from init in each backend file; a build that excludes a
// backend file simply leaves its scheme unregistered.
func Register(scheme string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = open
}

// Schemes returns the registered backend schemes, sorted.
func Schemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open resolves the URI scheme against the backend registry and
// constructs the matching adapter. Unknown or malformed URIs fail here
// with a ConfigError, before any read or write is attempted.
func Open(ctx context.Context, uri string) (Adapter, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return nil, &ConfigError{Reason: "URI must look like scheme://target, got " + uri}
	}

	registryMu.RLock()
	open, ok := registry[scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, &ConfigError{Scheme: scheme, Reason: "no such backend (available: " + strings.Join(Schemes(), ", ") + ")"}
	}
	return open(ctx, uri)
}

// OpenEngine is the common construction path: resolve the URI and wrap
// the adapter in an Engine.
func OpenEngine(ctx context.Context, uri string) (*Engine, error) {
	a, err := Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewEngine(a), nil
}
