package service

import "github.com/google/uuid"

// Todo represents a single task item. Values are never mutated in place;
// the With* helpers return updated copies.
type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// NewDraft returns an incomplete todo with a fresh client-side ID.
func NewDraft(title string) Todo {
	return Todo{ID: NewID(), Title: title}
}

// NewID generates an opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// WithCompleted returns a copy with Completed set.
func (t Todo) WithCompleted(done bool) Todo {
	t.Completed = done
	return t
}

// WithTitle returns a copy with Title set.
func (t Todo) WithTitle(title string) Todo {
	t.Title = title
	return t
}

// Toggled returns a copy with Completed flipped.
func (t Todo) Toggled() Todo {
	return t.WithCompleted(!t.Completed)
}
