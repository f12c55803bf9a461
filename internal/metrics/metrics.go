package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "registrations_total", Help: "Registration attempts by outcome",
	}, []string{"outcome"})
	Compensations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "compensations_total", Help: "Saga compensations by step and result",
	}, []string{"step", "result"})
	SignIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "signins_total", Help: "Sign-in attempts by outcome",
	}, []string{"outcome"})
	StoreOps = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal", Name: "store_op_seconds", Help: "Record store operation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal", Name: "active_sessions", Help: "Open client sessions",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "portal", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Registrations, Compensations, SignIns, StoreOps, ActiveSessions, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveStoreOp(op string, d time.Duration, err error) {
	StoreOps.WithLabelValues(op, result(err)).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
