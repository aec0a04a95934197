package sqlkv_test

import (
	"path/filepath"
	"testing"

	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/kv/kvtest"
	"github.com/quadkit/quadkit/kv/sqlkv"
)

// TestConformance runs the shared suite against sqlite3, the only dialect
// that needs no external server to exercise in a unit test. Postgres,
// pgx and mysql share the same code path and are not exercised here.
func TestConformance(t *testing.T) {
	kvtest.Run(t, func(t testing.TB) (kv.Backend, func()) {
		dsn := filepath.Join(t.TempDir(), "quadkit.sqlite")
		db, err := sqlkv.Open("sqlite3", dsn)
		if err != nil {
			t.Fatalf("open sqlite backend: %v", err)
		}
		return db, func() { db.Close() }
	})
}
