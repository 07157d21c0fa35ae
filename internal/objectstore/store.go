// Package objectstore defines the three-operation object storage capability
// the report pipeline depends on, plus the filesystem, in-memory and S3
// implementations of it.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist. It is the only
// error callers may interpret as an "absent" state.
var ErrNotFound = errors.New("object not found")

// Store is a flat key/value binary object store with prefix listing.
type Store interface {
	// List returns every key starting with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get returns the object body, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or replaces the object at key.
	Put(ctx context.Context, key string, body []byte) error
}

// Pinger is implemented by stores that can cheaply check their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a store to the health handler's ping signature. Stores
// without a Pinger are always reported as reachable.
func PingFunc(s Store) func() error {
	p, ok := s.(Pinger)
	if !ok {
		return func() error { return nil }
	}
	return func() error { return p.Ping(context.Background()) }
}
