// Package exitcode defines exit codes for the CLI.
package exitcode

import "todo/internal/todoerr"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown todo).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// ForKind maps a domain error kind to the exit code reported for it.
func ForKind(k todoerr.Kind) int {
	switch k {
	case todoerr.NotFound:
		return UserError
	case todoerr.Unauthorized:
		return AuthError
	default:
		return BackendError
	}
}
