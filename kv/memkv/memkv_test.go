package memkv_test

import (
	"testing"

	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/kv/kvtest"
	"github.com/quadkit/quadkit/kv/memkv"
)

func TestConformance(t *testing.T) {
	kvtest.Run(t, func(t testing.TB) (kv.Backend, func()) {
		return memkv.New(), func() {}
	})
}
