package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStoreOp_Labels(t *testing.T) {
	before := testutil.CollectAndCount(StoreOps)
	ObserveStoreOp("metrics_test_write", time.Millisecond, nil)
	ObserveStoreOp("metrics_test_write", time.Millisecond, errors.New("boom"))
	if got := testutil.CollectAndCount(StoreOps); got != before+2 {
		t.Fatalf("expected two new series, got %d -> %d", before, got)
	}
}

func TestRegistrationsCounter(t *testing.T) {
	c := Registrations.WithLabelValues("metrics_test")
	c.Inc()
	if v := testutil.ToFloat64(c); v != 1 {
		t.Fatalf("expected 1, got %v", v)
	}
}
