// Package backend selects the data service named in the configuration.
package backend

import (
	"context"
	"fmt"

	"todo/internal/backend/googletasks"
	"todo/internal/backend/sqlite"
	"todo/internal/backend/stub"
	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/todoerr"
)

// Open creates the service for cfg.Backend. Services that hold resources
// implement io.Closer.
func Open(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Backend {
	case config.BackendStub:
		return stub.New(), nil
	case config.BackendSQLite:
		if err := cfg.EnsureDir(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		return sqlite.Open(cfg.DBPath)
	case config.BackendGoogleTasks:
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("oauth_client.json not found in %s: %w", cfg.Dir, todoerr.NewUnauthorized())
		}
		if !cfg.HasToken() {
			return nil, fmt.Errorf("not logged in (run: todo login): %w", todoerr.NewUnauthorized())
		}
		return googletasks.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
