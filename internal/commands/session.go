package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"todo/internal/actions"
	"todo/internal/config"
	"todo/internal/logfields"
	"todo/internal/metrics"
	"todo/internal/notify"
	"todo/internal/refresh"
	"todo/internal/repository"
	"todo/internal/service"
	"todo/internal/state"
	"todo/internal/todoerr"
)

const actionQueueSize = 64

// Session wires one data service into a running repository, state
// container and action handler for the lifetime of a command.
type Session struct {
	Store   *state.Container
	Actions *actions.Handler
	Repo    *repository.Repository
	Logger  *slog.Logger

	cfg     *config.Config
	svc     service.Service
	reg     *prom.Registry
	cancel  context.CancelFunc
	pumped  chan struct{}
	closers []func()
}

// OpenSession starts the container loop and the action pump. Close must be
// called to stop them. A NATS publisher is attached when cfg.NATSURL is set.
func OpenSession(ctx context.Context, cfg *config.Config, svc service.Service, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if cfg.MetricsAddr != "" {
		reg = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}

	repo := repository.New(svc, repository.WithRecorder(rec), repository.WithLogger(logger))
	store := state.New(repo,
		state.WithLogger(logger),
		state.WithRecorder(rec),
		state.WithDebounceWindow(cfg.DebounceWindow),
		state.WithDismissDelay(cfg.DismissDelay),
	)
	handler := actions.New(store, actionQueueSize, logger)

	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		Store:   store,
		Actions: handler,
		Repo:    repo,
		Logger:  logger,
		cfg:     cfg,
		svc:     svc,
		reg:     reg,
		cancel:  cancel,
		pumped:  make(chan struct{}),
	}

	go func() { _ = store.Run(runCtx) }()
	go func() {
		defer close(s.pumped)
		handler.Run(runCtx)
	}()

	if cfg.NATSURL != "" {
		pub, err := notify.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		detach := pub.Attach(repo)
		s.closers = append(s.closers, pub.Close, detach)
	}
	return s, nil
}

// StartBackground starts the long-running extras used by interactive
// sessions: the metrics endpoint and the periodic refresh.
func (s *Session) StartBackground() error {
	if s.cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(s.cfg.MetricsAddr, s.reg, s.Logger)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
	}
	if s.cfg.RefreshInterval > 0 {
		sched, err := refresh.New(s.Actions, s.cfg.RefreshInterval, s.Logger)
		if err != nil {
			return err
		}
		sched.Start()
		s.closers = append(s.closers, func() { _ = sched.Stop() })
	}
	return nil
}

// Dispatch runs a and returns the error it left in State, if any.
func (s *Session) Dispatch(ctx context.Context, a state.Action) *todoerr.Error {
	if err := s.Store.Dispatch(ctx, a); err != nil {
		return todoerr.NewGeneric(err.Error())
	}
	return s.Store.State().Err
}

// SubmitTitle stores title as the new-task buffer and waits out the
// debounce window. A title already in the buffer is left alone so no
// debounce timer outlives the call.
func (s *Session) SubmitTitle(ctx context.Context, title string) *todoerr.Error {
	if s.Store.State().NewTaskTitle == title {
		return nil
	}
	if te := s.Dispatch(ctx, state.SetNewTaskTitle{Title: title}); te != nil {
		return te
	}
	// Dispatching superseded any older pending title, so only this
	// commit can make the buffer equal title.
	_, err := s.Store.Await(ctx, func(st state.State) bool { return st.NewTaskTitle == title })
	if err != nil {
		return todoerr.NewGeneric(fmt.Sprintf("waiting for input: %v", err))
	}
	return nil
}

// Close stops everything OpenSession and StartBackground started, newest
// first, and closes the service if it holds resources.
func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	s.cancel()
	<-s.Store.Done()
	<-s.pumped
	if c, ok := s.svc.(io.Closer); ok {
		if err := c.Close(); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Warn("Failed to close backend", logfields.Error(err))
		}
	}
}
