package storage

import (
	"context"
	"errors"
	"sync"

	ctxpkg "github.com/stupiduntilnot/contextstore/internal/context"
	"github.com/stupiduntilnot/contextstore/internal/scheme"
)

// Engine is the only surface application code talks to. It combines
// the update scheme with one Adapter to expose get/set/clear semantics
// where repeat writes of a growing context cost O(delta), not O(total).
//
// Writes to the same id must be serialized by the caller (one active
// turn per conversation); writes to distinct ids may run concurrently.
// Cross-field atomicity is not provided: a failed write may leave some
// fields updated, and callers recover by re-issuing a full write.
type Engine struct {
	adapter Adapter

	mu     sync.Mutex
	bounds map[string]int // per-id highest persisted turn index
}

// NewEngine wraps an adapter. The per-id bound cache starts cold and is
// re-derived from the backend on first write per id.
func NewEngine(a Adapter) *Engine {
	return &Engine{adapter: a, bounds: map[string]int{}}
}

// FullPath reports the backend identity string of the wrapped adapter.
func (e *Engine) FullPath() string { return e.adapter.FullPath() }

// Close releases the underlying adapter.
func (e *Engine) Close() error { return e.adapter.Close() }

// Write persists c under id, sending only data not yet stored: append
// fields contribute entries above the previously persisted turn bound,
// value fields are replaced in full. A context whose highest turn is
// below the persisted bound is treated as a rewind: stored data for the
// id is dropped and the context is rewritten from scratch.
func (e *Engine) Write(ctx context.Context, id string, c *ctxpkg.Context) error {
	bound, err := e.bound(ctx, id)
	if err != nil {
		return err
	}

	last := c.LastIndex()
	if last < bound {
		// Rewind: truncate and rewrite in full.
		if err := e.adapter.Delete(ctx, id); err != nil {
			e.forget(id)
			return err
		}
		bound = -1
	}

	ws, err := scheme.Diff(bound, c)
	if err != nil {
		e.forget(id)
		return err
	}

	// Append fields are persisted in declaration order (labels first,
	// responses last) and read back in the reverse order, so a read
	// racing a write never sees a response whose label is missing.
	for _, field := range scheme.AppendFields() {
		entries := ws.Appends[field]
		if len(entries) == 0 {
			continue
		}
		if err := e.adapter.PutAppend(ctx, id, field, entries); err != nil {
			e.forget(id)
			return err
		}
	}
	for field, data := range ws.Values {
		if err := e.adapter.PutValue(ctx, id, field, data); err != nil {
			e.forget(id)
			return err
		}
	}

	e.remember(id, last)
	return nil
}

// Read loads every field stored under id and merges them back into a
// Context. Returns ErrNotFound when nothing was ever written for id.
func (e *Engine) Read(ctx context.Context, id string) (*ctxpkg.Context, error) {
	values := map[string][]byte{}
	appends := map[string]map[int][]byte{}
	found := false

	// Reverse of the write order: fetching responses before labels
	// keeps a read concurrent with a write gap-free.
	appendFields := scheme.AppendFields()
	for i := len(appendFields) - 1; i >= 0; i-- {
		field := appendFields[i]
		entries, err := e.adapter.GetAppend(ctx, id, field)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			found = true
		}
		appends[field] = entries
	}
	for _, field := range scheme.ValueFields() {
		data, err := e.adapter.GetValue(ctx, id, field)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		found = true
		values[field] = data
	}

	if !found {
		return nil, ErrNotFound
	}
	return scheme.Merge(id, values, appends)
}

// Clear deletes all data stored under id. Clearing an absent id is a
// no-op.
func (e *Engine) Clear(ctx context.Context, id string) error {
	if err := e.adapter.Delete(ctx, id); err != nil {
		return err
	}
	e.forget(id)
	return nil
}

// ClearAll deletes every context owned by this storage instance.
func (e *Engine) ClearAll(ctx context.Context) error {
	if err := e.adapter.DeleteAll(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.bounds = map[string]int{}
	e.mu.Unlock()
	return nil
}

// Keys lists the ids currently stored.
func (e *Engine) Keys(ctx context.Context) ([]string, error) {
	return e.adapter.Keys(ctx)
}

// Len reports how many contexts are currently stored.
func (e *Engine) Len(ctx context.Context) (int, error) {
	keys, err := e.adapter.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (e *Engine) bound(ctx context.Context, id string) (int, error) {
	e.mu.Lock()
	b, ok := e.bounds[id]
	e.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := e.adapter.Bound(ctx, id)
	if err != nil {
		return 0, err
	}
	e.remember(id, b)
	return b, nil
}

func (e *Engine) remember(id string, bound int) {
	e.mu.Lock()
	e.bounds[id] = bound
	e.mu.Unlock()
}

func (e *Engine) forget(id string) {
	e.mu.Lock()
	delete(e.bounds, id)
	e.mu.Unlock()
}
