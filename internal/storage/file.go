package storage

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// fileAdapter stores every context in a single local file, rewriting
// the whole file on each mutation. The serialization format is
// pluggable: JSON for a human-readable store, gob for a compact binary
// one. Operations are synchronous on the caller's goroutine and guarded
// by one mutex, single-writer by construction.
type fileAdapter struct {
	path   string
	scheme string

	encode func(w io.Writer, data map[string]*record) error
	decode func(r io.Reader, data *map[string]*record) error

	mu   sync.Mutex
	data map[string]*record
}

func init() {
	Register("json", func(_ context.Context, uri string) (Adapter, error) {
		return openFileAdapter(uri, "json",
			func(w io.Writer, data map[string]*record) error {
				return json.NewEncoder(w).Encode(data)
			},
			func(r io.Reader, data *map[string]*record) error {
				return json.NewDecoder(r).Decode(data)
			},
		)
	})
	Register("gob", func(_ context.Context, uri string) (Adapter, error) {
		return openFileAdapter(uri, "gob",
			func(w io.Writer, data map[string]*record) error {
				return gob.NewEncoder(w).Encode(data)
			},
			func(r io.Reader, data *map[string]*record) error {
				return gob.NewDecoder(r).Decode(data)
			},
		)
	})
}

func openFileAdapter(
	uri, scheme string,
	encode func(io.Writer, map[string]*record) error,
	decode func(io.Reader, *map[string]*record) error,
) (Adapter, error) {
	path := uri[len(scheme)+len("://"):]
	if path == "" {
		return nil, &ConfigError{Scheme: scheme, Reason: "missing file path in " + uri}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &ConfigError{Scheme: scheme, Reason: fmt.Sprintf("create directory %s: %v", dir, err)}
		}
	}

	a := &fileAdapter{
		path:   path,
		scheme: scheme,
		encode: encode,
		decode: decode,
		data:   map[string]*record{},
	}
	if err := a.load(); err != nil {
		return nil, &ConfigError{Scheme: scheme, Reason: fmt.Sprintf("load %s: %v", path, err)}
	}
	return a, nil
}

func (a *fileAdapter) load() error {
	f, err := os.Open(a.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return a.decode(f, &a.data)
}

// flush rewrites the whole file through a temp file and rename, so a
// crash mid-write never leaves a truncated store behind.
func (a *fileAdapter) flush() error {
	dir := filepath.Dir(a.path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := a.encode(tmp, a.data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (a *fileAdapter) record(id string) *record {
	r, ok := a.data[id]
	if !ok {
		r = newRecord()
		a.data[id] = r
	}
	return r
}

func (a *fileAdapter) PutValue(_ context.Context, id, field string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record(id).putValue(field, data)
	return storageErr(a.scheme, id, field, a.flush())
}

func (a *fileAdapter) PutAppend(_ context.Context, id, field string, entries map[int][]byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record(id).putAppend(field, entries)
	return storageErr(a.scheme, id, field, a.flush())
}

func (a *fileAdapter) GetValue(_ context.Context, id, field string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.data[id]
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

func (a *fileAdapter) GetAppend(_ context.Context, id, field string) (map[int][]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := map[int][]byte{}
	r, ok := a.data[id]
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

func (a *fileAdapter) Bound(_ context.Context, id string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.data[id]
	if !ok {
		return -1, nil
	}
	return r.bound(), nil
}

func (a *fileAdapter) Delete(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.data[id]; !ok {
		return nil
	}
	delete(a.data, id)
	return storageErr(a.scheme, id, "", a.flush())
}

func (a *fileAdapter) DeleteAll(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = map[string]*record{}
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		return storageErr(a.scheme, "", "", err)
	}
	return nil
}

func (a *fileAdapter) Keys(_ context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.data))
	for id := range a.data {
		keys = append(keys, id)
	}
	return keys, nil
}

func (a *fileAdapter) FullPath() string { return a.scheme + "://" + a.path }

func (a *fileAdapter) Close() error { return nil }
