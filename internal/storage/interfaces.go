package storage

import (
	"context"
	"time"
)

// HistoryStore defines the bounded shared history
type HistoryStore interface {
	Insert(entry Entry) Entry
	Snapshot() []Entry
	Remove(id string) (Entry, bool)
	Clear() []Entry
	Capacity() int
}

// Cleaner deletes the stored file behind a removed entry.
// It reports false with a nil error when the file did not exist.
type Cleaner interface {
	DeleteIfExists(name string) (bool, error)
}

// Dispatcher runs cleanup jobs off the caller's goroutine.
type Dispatcher interface {
	Submit(job func())
}

// CacheStore defines the interface for caching rendered payloads
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
