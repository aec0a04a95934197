package leveldbkv_test

import (
	"testing"

	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/kv/kvtest"
	"github.com/quadkit/quadkit/kv/leveldbkv"
)

func TestConformance(t *testing.T) {
	kvtest.Run(t, func(t testing.TB) (kv.Backend, func()) {
		db, err := leveldbkv.Open(t.TempDir())
		if err != nil {
			t.Fatalf("open leveldb backend: %v", err)
		}
		return db, func() { db.Close() }
	})
}
