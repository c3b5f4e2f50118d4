// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/todoerr"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// TasksScope is the OAuth scope for Google Tasks.
	TasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service on the user's default task list.
type Client struct {
	svc    *tasks.Service
	listID string
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg)
	if err != nil {
		return nil, err
	}

	// The token source refreshes on demand and outlives this call.
	httpClient := oauth2.NewClient(context.WithoutCancel(ctx), oauthConfig.TokenSource(ctx, token))
	return NewWithHTTPClient(ctx, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// Extra options, such as option.WithEndpoint, are passed to the API client.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: DefaultListID}, nil
}

// FetchAll returns every task in the default list, completed ones included.
func (c *Client) FetchAll(ctx context.Context) ([]service.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []service.Todo
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, task := range resp.Items {
				result = append(result, toTodo(task))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// FetchOne returns the task with the given id. A missing task is reported
// as not found rather than as an error.
func (c *Client) FetchOne(ctx context.Context, id string) (service.Todo, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	task, err := c.svc.Tasks.Get(c.listID, id).Context(ctx).Do()
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return service.Todo{}, false, nil
		}
		return service.Todo{}, false, wrapError(err)
	}
	return toTodo(task), true, nil
}

// Create inserts a task. The server assigns the id.
func (c *Client) Create(ctx context.Context, draft service.Todo) (service.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	task, err := c.svc.Tasks.Insert(c.listID, fromTodo(draft)).Context(ctx).Do()
	if err != nil {
		return service.Todo{}, wrapError(err)
	}
	return toTodo(task), nil
}

// Update patches title and status.
func (c *Client) Update(ctx context.Context, todo service.Todo) (service.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	patch := fromTodo(todo)
	patch.ForceSendFields = []string{"Title", "Status"}
	if !todo.Completed {
		// Reopening a task requires clearing its completion timestamp.
		patch.NullFields = []string{"Completed"}
	}

	task, err := c.svc.Tasks.Patch(c.listID, todo.ID, patch).Context(ctx).Do()
	if err != nil {
		return service.Todo{}, wrapError(err)
	}
	return toTodo(task), nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func toTodo(task *tasks.Task) service.Todo {
	return service.Todo{
		ID:        task.Id,
		Title:     task.Title,
		Completed: task.Status == statusCompleted,
	}
}

func fromTodo(t service.Todo) *tasks.Task {
	status := statusNeedsAction
	if t.Completed {
		status = statusCompleted
	}
	return &tasks.Task{Title: t.Title, Status: status}
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// wrapError classifies API errors into the domain taxonomy.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (run: todo login): %w", todoerr.NewUnauthorized())
		case http.StatusNotFound:
			return todoerr.NewNotFound()
		default:
			return todoerr.NewNetwork(todoerr.NetworkError{Kind: todoerr.ServerError, Code: apiErr.Code})
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", service.ErrMalformed, err)
	}

	// Timeouts, refused connections and other transport failures.
	return todoerr.NewNetwork(todoerr.NetworkError{Kind: todoerr.InvalidResponse})
}

var _ service.Service = (*Client)(nil)
