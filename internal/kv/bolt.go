package kv

import (
	"context"
	"os"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketBlobs = "blobs"

// Bolt is the default blob backend, a single-bucket bbolt file.
type Bolt struct {
	storage *bbolt.DB
}

// OpenBolt opens (creating if needed) a bbolt database at path.
func OpenBolt(path string) (*Bolt, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketBlobs))
		return err
	}); err != nil {
		_ = instance.Close()
		return nil, err
	}

	// Best-effort, may not work on all platforms
	_ = os.Chmod(path, 0600)

	return &Bolt{storage: instance}, nil
}

// Get returns the blob stored under key.
func (b *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found bool

	err := b.storage.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketBlobs)).Get([]byte(key))
		if v == nil {
			return nil
		}

		// The slice is only valid inside the transaction.
		value = make([]byte, len(v))
		copy(value, v)
		found = true

		return nil
	})

	return value, found, err
}

// Put writes the blob under key.
func (b *Bolt) Put(_ context.Context, key string, value []byte) error {
	return b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketBlobs)).Put([]byte(key), value)
	})
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.storage.Close()
}
