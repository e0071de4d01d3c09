package storage

import (
	"context"
	"errors"
	"testing"
)

// Construction-path checks only; nothing here needs a live server.

func TestMongo_BadURI(t *testing.T) {
	// The first fails our own URI parse, the second the driver's
	// options validation (no host); neither reaches the network.
	for _, uri := range []string{"mongodb://%zz", "mongodb://"} {
		_, err := Open(context.Background(), uri)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("Open(%q): err = %T (%v), want *ConfigError", uri, err, err)
		}
	}
}
