// Package storage keeps whole values under string keys.
//
// It stands in for browser local storage: callers read a blob, change it in
// memory and write the whole blob back. Three backends are provided, an
// embedded SQLite file, a Postgres table and an in-process map.
package storage

import "context"

// BlobStore is a key/value store of opaque byte blobs.
type BlobStore interface {
	// Get returns the blob stored under key. ok is false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Put replaces the blob stored under key.
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
