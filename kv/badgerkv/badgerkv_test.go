package badgerkv_test

import (
	"testing"

	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/kv/badgerkv"
	"github.com/quadkit/quadkit/kv/kvtest"
)

func TestConformance(t *testing.T) {
	kvtest.Run(t, func(t testing.TB) (kv.Backend, func()) {
		db, err := badgerkv.Open(t.TempDir())
		if err != nil {
			t.Fatalf("open badger backend: %v", err)
		}
		return db, func() { db.Close() }
	})
}
