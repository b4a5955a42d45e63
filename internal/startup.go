package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultStartServerTimeout is the stock startServerTimeout.
const DefaultStartServerTimeout = 3 * time.Second

// StartupTask is work that must finish before the server listens.
type StartupTask func(ctx context.Context) error

// startup runs before-start tasks. A task begins as soon as it is added.
type startup struct {
	ctx      context.Context
	g        errgroup.Group
	failOnce sync.Once
	failed   chan error
}

func newStartup(ctx context.Context) *startup {
	return &startup{ctx: ctx, failed: make(chan error, 1)}
}

func (s *startup) Go(task StartupTask) {
	s.g.Go(func() error {
		err := task(s.ctx)
		if err != nil {
			s.failOnce.Do(func() { s.failed <- err })
		}
		return err
	})
}

// Wait returns when every task has finished, when the first task fails, or
// when timeout fires, whichever comes first. Tasks still running are left
// alone. A non-positive timeout disables the timer.
func (s *startup) Wait(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- s.g.Wait() }()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case err := <-done:
		return err
	case err := <-s.failed:
		return err
	case <-expired:
		return fmt.Errorf("%w, time: %dms", ErrStartTimeout, timeout.Milliseconds())
	}
}
