package sources

import (
	"sync"

	"github.com/webrewind/webrewind/internal/models"
)

// Registry holds adapters constructed on first use and tears them down via a
// single Close walk. It replaces scattered lazy singletons.
type Registry struct {
	mu       sync.Mutex
	adapters map[models.ArchiveSource]Adapter
	closers  []func() error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[models.ArchiveSource]Adapter)}
}

// GetOrCreate returns the adapter for a source, constructing it once.
func (r *Registry) GetOrCreate(source models.ArchiveSource, construct func() Adapter) Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[source]; ok {
		return adapter
	}
	adapter := construct()
	r.adapters[source] = adapter
	return adapter
}

// Get returns a previously constructed adapter, or nil.
func (r *Registry) Get(source models.ArchiveSource) Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adapters[source]
}

// All returns every constructed adapter.
func (r *Registry) All() []Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Adapter, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		out = append(out, adapter)
	}
	return out
}

// RegisterCloser records a teardown hook run by Close.
func (r *Registry) RegisterCloser(closer func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, closer)
}

// Close walks the registered teardown hooks. The first error wins but every
// hook runs.
func (r *Registry) Close() error {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var firstErr error
	for _, closer := range closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
