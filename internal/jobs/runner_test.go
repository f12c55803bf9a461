package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunner_Every(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, nil)

	var calls int32
	done := make(chan struct{})
	r.Every(5*time.Millisecond, "test_tick", func(context.Context) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			close(done)
		}
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	r.Wait()

	if got := testutil.ToFloat64(jobRuns.WithLabelValues("test_tick")); got < 3 {
		t.Fatalf("expected >= 3 runs, got %v", got)
	}
}

func TestRunner_RecoversPanicsAndCountsErrors(t *testing.T) {
	r := New(context.Background(), nil)

	r.run("test_panic", func(context.Context) error { panic("boom") })
	r.run("test_err", func(context.Context) error { return errors.New("nope") })

	if got := testutil.ToFloat64(jobErrors.WithLabelValues("test_panic")); got != 1 {
		t.Fatalf("panic not counted: %v", got)
	}
	if got := testutil.ToFloat64(jobErrors.WithLabelValues("test_err")); got != 1 {
		t.Fatalf("error not counted: %v", got)
	}
	if got := testutil.ToFloat64(jobRuns.WithLabelValues("test_panic")); got != 1 {
		t.Fatalf("run not counted: %v", got)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestStorePing(t *testing.T) {
	if err := StorePing(pinger{})(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := errors.New("down")
	if err := StorePing(pinger{err: want})(context.Background()); !errors.Is(err, want) {
		t.Fatalf("got %v", err)
	}
}
