package storage

import (
	"context"
	"errors"
	"testing"
)

// Construction-path checks only; nothing here needs a live cluster.

func TestCassandra_KeyspaceRequired(t *testing.T) {
	for _, uri := range []string{"cassandra://", "cassandra://localhost"} {
		_, err := Open(context.Background(), uri)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("Open(%q): err = %T (%v), want *ConfigError", uri, err, err)
		}
	}
}
