package storage

import (
	"context"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Key locates one poem inside the crawl tree. All parts are already
// sanitized; Name is the file stem without extension.
type Key struct {
	Era  string
	Poet string
	Name string
}

// Storage is the interface for all poem storage backends.
type Storage interface {
	// Prepare makes sure the poet's location exists. It is idempotent.
	Prepare(era, poet string) error

	// Exists reports whether a poem is already persisted under key.
	Exists(key Key) bool

	// Store persists one poem under key.
	Store(ctx context.Context, key Key, poem *types.Poem) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

var (
	_ Storage = (*FileStorage)(nil)
	_ Storage = (*MongoStorage)(nil)
	_ Storage = (*MultiStorage)(nil)
)
