package storage

import (
	"context"
	"errors"
	"testing"
)

func TestOpen_UnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "voodoo://somewhere")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %T (%v), want *ConfigError", err, err)
	}
	if ce.Scheme != "voodoo" {
		t.Errorf("scheme = %q, want voodoo", ce.Scheme)
	}
}

func TestOpen_MalformedURI(t *testing.T) {
	for _, uri := range []string{"", "no-scheme-at-all", "://missing"} {
		_, err := Open(context.Background(), uri)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("Open(%q): err = %T (%v), want *ConfigError", uri, err, err)
		}
	}
}

func TestSchemes_CoreBackendsRegistered(t *testing.T) {
	registered := map[string]bool{}
	for _, s := range Schemes() {
		registered[s] = true
	}
	for _, want := range []string{
		"memory", "json", "gob", "bolt",
		"sqlite", "postgres", "postgresql", "mysql",
		"mongodb", "redis", "cassandra",
	} {
		if !registered[want] {
			t.Errorf("scheme %q not registered", want)
		}
	}
}

func TestOpen_Memory(t *testing.T) {
	a, err := Open(context.Background(), "memory://")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.FullPath() != "memory://" {
		t.Errorf("FullPath = %q", a.FullPath())
	}
}

func TestStorageError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := storageErr("redis", "id-1", "labels", inner)
	if !errors.Is(err, inner) {
		t.Error("StorageError does not unwrap to the cause")
	}
	// Sentinels pass through untouched for errors.Is at call sites.
	if got := storageErr("redis", "id-1", "labels", ErrNotFound); got != ErrNotFound {
		t.Errorf("sentinel wrapped: %v", got)
	}
	if storageErr("redis", "", "", nil) != nil {
		t.Error("nil error wrapped")
	}
}
