package storage

import (
	"context"
	"sync"
)

// record is the stored form of one context used by the in-memory and
// file-backed adapters: raw payloads per value field, raw payloads per
// (append field, turn index).
type record struct {
	Values  map[string][]byte         `json:"values"`
	Appends map[string]map[int][]byte `json:"appends"`
}

func newRecord() *record {
	return &record{
		Values:  map[string][]byte{},
		Appends: map[string]map[int][]byte{},
	}
}

func (r *record) putValue(field string, data []byte) {
	stored := make([]byte, len(data))
	copy(stored, data)
	r.Values[field] = stored
}

func (r *record) putAppend(field string, entries map[int][]byte) {
	m := r.Appends[field]
	if m == nil {
		m = map[int][]byte{}
		r.Appends[field] = m
	}
	for i, data := range entries {
		stored := make([]byte, len(data))
		copy(stored, data)
		m[i] = stored
	}
}

func (r *record) bound() int {
	last := -1
	for _, entries := range r.Appends {
		for i := range entries {
			if i > last {
				last = i
			}
		}
	}
	return last
}

// MemoryAdapter keeps everything in process memory. It is the baseline
// the benchmark harness compares real backends against, and the storage
// used by tests that only care about engine semantics.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string]*record
}

// NewMemoryAdapter returns an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: map[string]*record{}}
}

func init() {
	Register("memory", func(_ context.Context, _ string) (Adapter, error) {
		return NewMemoryAdapter(), nil
	})
}

func (m *MemoryAdapter) record(id string) *record {
	r, ok := m.data[id]
	if !ok {
		r = newRecord()
		m.data[id] = r
	}
	return r
}

func (m *MemoryAdapter) PutValue(_ context.Context, id, field string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).putValue(field, data)
	return nil
}

func (m *MemoryAdapter) PutAppend(_ context.Context, id, field string, entries map[int][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).putAppend(field, entries)
	return nil
}

func (m *MemoryAdapter) GetValue(_ context.Context, id, field string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := r.Values[field]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryAdapter) GetAppend(_ context.Context, id, field string) (map[int][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[int][]byte{}
	r, ok := m.data[id]
	if !ok {
		return out, nil
	}
	for i, data := range r.Appends[field] {
		entry := make([]byte, len(data))
		copy(entry, data)
		out[i] = entry
	}
	return out, nil
}

func (m *MemoryAdapter) Bound(_ context.Context, id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.data[id]
	if !ok {
		return -1, nil
	}
	return r.bound(), nil
}

func (m *MemoryAdapter) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MemoryAdapter) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string]*record{}
	return nil
}

func (m *MemoryAdapter) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for id := range m.data {
		keys = append(keys, id)
	}
	return keys, nil
}

func (m *MemoryAdapter) FullPath() string { return "memory://" }

func (m *MemoryAdapter) Close() error { return nil }
