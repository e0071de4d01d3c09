package storage

import (
	"context"
	"errors"
	"testing"
)

// Construction-path checks only; nothing here needs a live server.

func TestRedis_BadURI(t *testing.T) {
	for _, uri := range []string{"redis://%zz", "redis://localhost:6379/not-a-db"} {
		_, err := Open(context.Background(), uri)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("Open(%q): err = %T (%v), want *ConfigError", uri, err, err)
		}
	}
}
