package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports the health of one dependency.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its probe.
type Checks map[string]CheckFunc

type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type options struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures the readiness handler.
type Option func(*options)

// WithTimeout bounds the whole check run. Default: 5s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger logs failed checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{timeout: defaultTimeout, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes checks concurrently and aggregates their results.
// The error wraps ErrCheckFailed when any check failed.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Response, error) {
	return run(ctx, checks, newOptions(opts...))
}

func run(ctx context.Context, checks Checks, o *options) (*Response, error) {
	resp := &Response{Status: StatusHealthy}
	if len(checks) == 0 {
		return resp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		failed []error
		g      errgroup.Group
	)
	resp.Checks = make(map[string]Check, len(checks))

	for name, check := range checks {
		g.Go(func() error {
			res := Check{Status: StatusHealthy}
			if err := probe(ctx, check); err != nil {
				res = Check{Status: StatusUnhealthy, Error: err.Error()}
				o.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			resp.Checks[name] = res
			if res.Status == StatusUnhealthy {
				failed = append(failed, errors.New(name+": "+res.Error))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		resp.Status = StatusUnhealthy
		return resp, errors.Join(append([]error{ErrCheckFailed}, failed...)...)
	}
	return resp, nil
}

// probe runs check and gives up when ctx expires.
func probe(ctx context.Context, check CheckFunc) error {
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ErrCheckTimeout
	}
}
