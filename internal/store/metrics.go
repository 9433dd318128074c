package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Store operations by backend, kind and result",
		},
		[]string{"backend", "op", "result"},
	)
	storeCommitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_commit_duration_seconds",
			Help:    "Latency of atomic store commits",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(storeOps)
	prometheus.MustRegister(storeCommitSeconds)
}

type instrumented struct {
	Store
	backend string
}

// Instrument records operation counts and commit latency.
func Instrument(s Store, backend string) Store {
	if backend == "" {
		backend = "memory"
	}
	return &instrumented{Store: s, backend: backend}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := i.Store.Get(ctx, key)
	storeOps.WithLabelValues(i.backend, "get", result(err)).Inc()
	return v, err
}

func (i *instrumented) Commit(ctx context.Context, ops ...Op) error {
	start := time.Now()
	err := i.Store.Commit(ctx, ops...)
	storeCommitSeconds.WithLabelValues(i.backend).Observe(time.Since(start).Seconds())
	storeOps.WithLabelValues(i.backend, "commit", result(err)).Inc()
	return err
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "miss"
	default:
		return "error"
	}
}
