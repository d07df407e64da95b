// Package store persists computed layouts so they can be fetched, listed,
// and re-rendered later without recomputation.
//
// Two backends are provided:
//   - memory: in-memory storage for development/testing
//   - mongo: MongoDB-backed storage for server deployments
package store

import (
	"context"
	"errors"

	"github.com/stepgraph/stepgraph/pkg/graphio"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a layout does not exist.
	ErrNotFound = errors.New("layout not found")
)

// Store is the interface for layout storage backends.
type Store interface {
	// Save persists a layout. A missing ID is assigned before storing;
	// saving with an existing ID replaces that layout. Returns the ID the
	// layout was stored under.
	Save(ctx context.Context, l graphio.Layout) (string, error)

	// Get retrieves a layout by ID. Returns ErrNotFound when no layout has
	// that ID.
	Get(ctx context.Context, id string) (graphio.Layout, error)

	// List returns all stored layouts.
	List(ctx context.Context) ([]graphio.Layout, error)

	// Delete removes a layout. Returns ErrNotFound when no layout has
	// that ID.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
