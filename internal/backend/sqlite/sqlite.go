// Package sqlite implements service.Service on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"todo/internal/service"
	"todo/internal/todoerr"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_position ON todos(position);
`

// Store is a service.Service backed by one SQLite file.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and creates if needed) the database at path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchAll returns every todo in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]service.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, completed FROM todos ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var todos []service.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

// FetchOne looks a todo up by id.
func (s *Store) FetchOne(ctx context.Context, id string) (service.Todo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, completed FROM todos WHERE id = ?", id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Todo{}, false, nil
	}
	if err != nil {
		return service.Todo{}, false, err
	}
	return t, true, nil
}

// Create stores draft under a newly generated id.
func (s *Store) Create(ctx context.Context, draft service.Todo) (service.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := service.Todo{ID: service.NewID(), Title: draft.Title, Completed: draft.Completed}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, completed, position)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM todos))`,
		created.ID, created.Title, created.Completed,
	)
	if err != nil {
		return service.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return created, nil
}

// Update overwrites title and completion of an existing todo.
func (s *Store) Update(ctx context.Context, todo service.Todo) (service.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE todos SET title = ?, completed = ? WHERE id = ?",
		todo.Title, todo.Completed, todo.ID,
	)
	if err != nil {
		return service.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if err := requireRow(res); err != nil {
		return service.Todo{}, err
	}
	return todo, nil
}

// Delete removes a todo.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(sc scanner) (service.Todo, error) {
	var t service.Todo
	if err := sc.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return service.Todo{}, err
		}
		return service.Todo{}, fmt.Errorf("%w: %v", service.ErrMalformed, err)
	}
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return todoerr.NewNotFound()
	}
	return nil
}

var _ service.Service = (*Store)(nil)
