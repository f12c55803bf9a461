package jobs

import (
	"context"
	"time"

	"github.com/Spok95/school-portal/internal/ctxutil"
	"github.com/Spok95/school-portal/internal/metrics"
	"github.com/Spok95/school-portal/internal/store"
)

// StorePing checks that the record store answers and records the latency.
func StorePing(p store.Pinger) Job {
	return func(ctx context.Context) error {
		ctx, cancel := ctxutil.WithStoreTimeout(ctx)
		defer cancel()
		t0 := time.Now()
		if err := p.Ping(ctx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	}
}
