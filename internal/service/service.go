// Package service defines the backend-agnostic interface for todo operations.
package service

import (
	"context"
	"errors"
)

// ErrMalformed marks a record the backend could not decode.
// The repository reports it as invalid data.
var ErrMalformed = errors.New("malformed record")

// Service defines the interface for todo backend operations.
// All remote calls go through this interface; nothing above the
// repository imports a backend SDK directly.
type Service interface {
	// FetchAll returns every todo in backend order.
	FetchAll(ctx context.Context) ([]Todo, error)

	// FetchOne returns the todo with the given ID.
	// The bool is false when the backend has no such todo.
	FetchOne(ctx context.Context, id string) (Todo, bool, error)

	// Create stores a new todo. The backend assigns the final identity,
	// so the returned ID may differ from draft.ID.
	Create(ctx context.Context, draft Todo) (Todo, error)

	// Update replaces the stored fields of todo.ID and returns the
	// confirmed record.
	Update(ctx context.Context, todo Todo) (Todo, error)

	// Delete removes a todo.
	Delete(ctx context.Context, id string) error
}
