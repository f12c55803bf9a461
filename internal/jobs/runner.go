package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/logging"
	"github.com/Spok95/school-portal/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	return &Runner{ctx: ctx, log: logging.OrNop(log)}
}

// Every runs fn every interval until the runner's context is done.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// Wait blocks until every loop has stopped.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic in job %s: %v", name, p)
			r.log.Error("job panicked", zap.String("job", name), zap.Error(err))
			observability.CaptureErr(err)
			jobErrors.WithLabelValues(name).Inc()
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
	}
}
