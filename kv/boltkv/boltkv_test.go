package boltkv_test

import (
	"testing"

	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/kv/boltkv"
	"github.com/quadkit/quadkit/kv/kvtest"
)

func TestConformance(t *testing.T) {
	kvtest.Run(t, func(t testing.TB) (kv.Backend, func()) {
		db, err := boltkv.Open(t.TempDir())
		if err != nil {
			t.Fatalf("open bolt backend: %v", err)
		}
		return db, func() { db.Close() }
	})
}
