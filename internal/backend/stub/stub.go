// Package stub implements service.Service with fabricated records. Nothing
// is stored; every call answers as a cooperative server would.
package stub

import (
	"context"

	"todo/internal/service"
)

// Service is a fabricating service.Service.
type Service struct{}

// New creates a stub service.
func New() *Service {
	return &Service{}
}

// FetchAll returns three fresh open todos.
func (s *Service) FetchAll(ctx context.Context) ([]service.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []service.Todo{
		{ID: service.NewID(), Title: "task 1"},
		{ID: service.NewID(), Title: "task 2"},
		{ID: service.NewID(), Title: "task 3"},
	}, nil
}

// FetchOne fabricates a todo for any id.
func (s *Service) FetchOne(ctx context.Context, id string) (service.Todo, bool, error) {
	if err := ctx.Err(); err != nil {
		return service.Todo{}, false, err
	}
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return service.Todo{ID: id, Title: "Todo " + short}, true, nil
}

// Create assigns a new id and ignores the draft's.
func (s *Service) Create(ctx context.Context, draft service.Todo) (service.Todo, error) {
	if err := ctx.Err(); err != nil {
		return service.Todo{}, err
	}
	return service.Todo{ID: service.NewID(), Title: draft.Title}, nil
}

// Update echoes the record.
func (s *Service) Update(ctx context.Context, todo service.Todo) (service.Todo, error) {
	if err := ctx.Err(); err != nil {
		return service.Todo{}, err
	}
	return todo, nil
}

// Delete always succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	return ctx.Err()
}

var _ service.Service = (*Service)(nil)
