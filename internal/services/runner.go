package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes best-effort side effects. The task context is detached
// from the request so a client disconnect does not cut a karma write short.
type Runner interface {
	Run(ctx context.Context, name string, task func(ctx context.Context) error)
}

// AsyncRunner runs each task in its own goroutine with a timeout.
type AsyncRunner struct {
	Timeout time.Duration
	Log     *zap.Logger

	wg sync.WaitGroup
}

func NewAsyncRunner(timeout time.Duration, log *zap.Logger) *AsyncRunner {
	if log == nil {
		log = zap.L()
	}
	return &AsyncRunner{Timeout: timeout, Log: log}
}

func (r *AsyncRunner) Run(ctx context.Context, name string, task func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.Timeout)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				r.Log.Error("side effect panicked", zap.String("task", name), zap.Any("panic", p))
			}
		}()
		if err := task(tctx); err != nil {
			r.Log.Warn("side effect failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every started task has returned.
func (r *AsyncRunner) Wait() { r.wg.Wait() }

// InlineRunner runs tasks on the caller's goroutine. Failures are still
// only logged.
type InlineRunner struct {
	Log *zap.Logger
}

func (r InlineRunner) Run(ctx context.Context, name string, task func(ctx context.Context) error) {
	if err := task(context.WithoutCancel(ctx)); err != nil && r.Log != nil {
		r.Log.Warn("side effect failed", zap.String("task", name), zap.Error(err))
	}
}
