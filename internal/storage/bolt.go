package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	boltValuesBucket = []byte("values")
	boltTurnsBucket  = []byte("turns")
)

// BoltAdapter stores contexts in a bbolt file: one key per value field
// and one key per (id, field, turn) so append writes only touch the new
// entries, not the whole file.
type BoltAdapter struct {
	db   *bolt.DB
	path string
}

func init() {
	Register("bolt", func(_ context.Context, uri string) (Adapter, error) {
		return OpenBolt(uri[len("bolt://"):])
	})
}

// OpenBolt opens (or creates) a bbolt store at the given path.
func OpenBolt(path string) (*BoltAdapter, error) {
	if path == "" {
		return nil, &ConfigError{Scheme: "bolt", Reason: "missing file path"}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &ConfigError{Scheme: "bolt", Reason: fmt.Sprintf("create directory %s: %v", dir, err)}
		}
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &ConfigError{Scheme: "bolt", Reason: fmt.Sprintf("open %s: %v", path, err)}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(boltValuesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(boltTurnsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &ConfigError{Scheme: "bolt", Reason: fmt.Sprintf("init buckets: %v", err)}
	}
	return &BoltAdapter{db: db, path: path}, nil
}

func boltValueKey(id, field string) []byte {
	return []byte(id + "/" + field)
}

// boltTurnKey is id/field/ followed by the big-endian turn index, so a
// cursor scan over the id/field/ prefix walks turns in order.
func boltTurnKey(id, field string, index int) []byte {
	prefix := []byte(id + "/" + field + "/")
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(index))
	return key
}

func boltTurnPrefix(id, field string) []byte {
	return []byte(id + "/" + field + "/")
}

func (a *BoltAdapter) PutValue(_ context.Context, id, field string, data []byte) error {
	err := a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltValuesBucket).Put(boltValueKey(id, field), data)
	})
	return storageErr("bolt", id, field, err)
}

func (a *BoltAdapter) PutAppend(_ context.Context, id, field string, entries map[int][]byte) error {
	err := a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltTurnsBucket)
		for i, data := range entries {
			if err := b.Put(boltTurnKey(id, field, i), data); err != nil {
				return err
			}
		}
		return nil
	})
	return storageErr("bolt", id, field, err)
}

func (a *BoltAdapter) GetValue(_ context.Context, id, field string) ([]byte, error) {
	var out []byte
	err := a.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(boltValuesBucket).Get(boltValueKey(id, field))
		if data == nil {
			return ErrNotFound
		}
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})
	if err != nil {
		return nil, storageErr("bolt", id, field, err)
	}
	return out, nil
}

func (a *BoltAdapter) GetAppend(_ context.Context, id, field string) (map[int][]byte, error) {
	out := map[int][]byte{}
	prefix := boltTurnPrefix(id, field)
	err := a.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltTurnsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			index := int(binary.BigEndian.Uint64(k[len(prefix):]))
			entry := make([]byte, len(v))
			copy(entry, v)
			out[index] = entry
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("bolt", id, field, err)
	}
	return out, nil
}

func (a *BoltAdapter) Bound(_ context.Context, id string) (int, error) {
	bound := -1
	err := a.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltTurnsBucket).Cursor()
		for _, field := range appendFieldNames() {
			prefix := boltTurnPrefix(id, field)
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				if index := int(binary.BigEndian.Uint64(k[len(prefix):])); index > bound {
					bound = index
				}
			}
		}
		return nil
	})
	if err != nil {
		return -1, storageErr("bolt", id, "", err)
	}
	return bound, nil
}

func (a *BoltAdapter) Delete(_ context.Context, id string) error {
	err := a.db.Update(func(tx *bolt.Tx) error {
		values := tx.Bucket(boltValuesBucket)
		for _, field := range valueFieldNames() {
			if err := values.Delete(boltValueKey(id, field)); err != nil {
				return err
			}
		}
		turns := tx.Bucket(boltTurnsBucket)
		c := turns.Cursor()
		prefix := []byte(id + "/")
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if err := turns.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return storageErr("bolt", id, "", err)
}

func (a *BoltAdapter) DeleteAll(_ context.Context) error {
	err := a.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{boltValuesBucket, boltTurnsBucket} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	return storageErr("bolt", "", "", err)
}

func (a *BoltAdapter) Keys(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	err := a.db.View(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{boltValuesBucket, boltTurnsBucket} {
			c := tx.Bucket(name).Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if i := bytes.IndexByte(k, '/'); i > 0 {
					seen[string(k[:i])] = true
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("bolt", "", "", err)
	}
	keys := make([]string, 0, len(seen))
	for id := range seen {
		keys = append(keys, id)
	}
	return keys, nil
}

func (a *BoltAdapter) FullPath() string { return "bolt://" + a.path }

func (a *BoltAdapter) Close() error { return a.db.Close() }
