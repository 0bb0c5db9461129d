// Package kv provides the single-blob key/value storage the comment
// store persists into. The contract is deliberately narrow: one opaque
// value per key, whole-value reads and writes, no partial updates.
package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the blob storage contract.
type Store interface {
	// Get returns the value for key. The second return reports whether
	// the key exists; a missing key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put writes the full value for key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the underlying resources.
	Close() error
}

// Open creates the configured backend inside baseDir.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.quip.
func Open(backend, baseDir string) (Store, error) {
	if backend == "memory" {
		return NewMemory(), nil
	}

	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	switch backend {
	case "", "bolt":
		return OpenBolt(filepath.Join(baseDir, "quip.db"))
	case "sqlite":
		return OpenSQLite(filepath.Join(baseDir, "quip.sqlite"))
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}
