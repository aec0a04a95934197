package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for backend operations, grounded on the teacher's
// graph/kv/metrics.go. These are package-level collectors only -- nothing
// here opens a /metrics HTTP endpoint, which would cross the networking
// non-goal; callers that want to serve them wire a handler themselves.
// Exported so metrics_test.go can assert on them directly, the same way a
// handler serving /metrics would read them via prometheus/testutil.
var (
	MetricGet = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_get_count",
		Help: "Number of Get calls issued to a kv.Backend.",
	})
	MetricGetMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_get_miss",
		Help: "Number of Get calls that found no value.",
	})
	MetricPut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_put_count",
		Help: "Number of Put calls issued to a kv.Backend.",
	})
	MetricDel = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_del_count",
		Help: "Number of Delete calls issued to a kv.Backend.",
	})
	MetricScan = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_scan_count",
		Help: "Number of Scan/PrefixScan calls issued to a kv.Backend.",
	})
	MetricCommit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_commit_count",
		Help: "Number of transaction commits.",
	})
	MetricRollback = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_kv_rollback_count",
		Help: "Number of transaction rollbacks.",
	})
)

// Instrument wraps a Backend so every operation updates the package's
// prometheus collectors. It is opt-in: backends are not instrumented by
// default, since most short-lived test stores don't need it.
func Instrument(b Backend) Backend { return &instrumented{Backend: b} }

type instrumented struct {
	Backend
}

func (b *instrumented) Get(key []byte) ([]byte, bool, error) {
	MetricGet.Inc()
	v, ok, err := b.Backend.Get(key)
	if !ok {
		MetricGetMiss.Inc()
	}
	return v, ok, err
}

func (b *instrumented) Put(key, value []byte) error {
	MetricPut.Inc()
	return b.Backend.Put(key, value)
}

func (b *instrumented) Delete(key []byte) error {
	MetricDel.Inc()
	return b.Backend.Delete(key)
}

func (b *instrumented) Scan(start, end []byte) Iterator {
	MetricScan.Inc()
	return b.Backend.Scan(start, end)
}

func (b *instrumented) PrefixScan(prefix []byte) Iterator {
	MetricScan.Inc()
	return b.Backend.PrefixScan(prefix)
}

func (b *instrumented) Begin(writable bool) (Tx, error) {
	tx, err := b.Backend.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &instrumentedTx{instrumented: instrumented{Backend: tx}, tx: tx}, nil
}

type instrumentedTx struct {
	instrumented
	tx Tx
}

func (t *instrumentedTx) Commit() error {
	MetricCommit.Inc()
	return t.tx.Commit()
}

func (t *instrumentedTx) Rollback() error {
	MetricRollback.Inc()
	return t.tx.Rollback()
}
