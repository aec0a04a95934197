package kv

import (
	"fmt"
	"sort"
	"sync"
)

// OpenFunc constructs a Backend given a path and an options bag. Volatile
// backends (e.g. the in-memory one) ignore path.
type OpenFunc func(path string, opts map[string]interface{}) (Backend, error)

// Registration describes a backend implementation registered under a name,
// mirroring the teacher's kv.Register/graph.RegisterQuadStore pattern so new
// backends (bolt, badger, leveldb, sql, memory) plug in the same way.
type Registration struct {
	Open         OpenFunc
	IsPersistent bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Registration{}
)

// Register adds a backend implementation under name. Re-registering a name
// panics at init time, matching the teacher's fail-fast registry style.
func Register(name string, r Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("kv: backend %q already registered", name))
	}
	registry[name] = r
}

// Open opens a backend by its registered name.
func Open(name, path string, opts map[string]interface{}) (Backend, error) {
	registryMu.RLock()
	r, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kv: unknown backend %q", name)
	}
	return r.Open(path, opts)
}

// Registered lists registered backend names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
