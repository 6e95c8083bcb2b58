package indexing

import (
	"context"
)

// Service is the contract for any document index backend. An index ref is the
// backend's opaque identifier for a store (a grouping of indexed documents).
type Service interface {
	// CreateOrGetStore returns the index ref for the store with the given
	// display name, creating it when it does not exist yet.
	CreateOrGetStore(ctx context.Context, name string) (string, error)

	// Upload indexes a document's raw bytes into the given store.
	Upload(ctx context.Context, indexRef string, data []byte, displayName string) error

	// Resolve reports whether the store behind indexRef still exists.
	Resolve(ctx context.Context, indexRef string) (bool, error)

	// Query runs a retrieval-augmented query against the given stores and
	// returns the grounded answer text.
	Query(ctx context.Context, indexRefs []string, query string) (string, error)

	// DeleteStore removes the store and everything indexed in it.
	DeleteStore(ctx context.Context, indexRef string) error
}
