package lintbridge

import "sync"

// EngineRegistry deduplicates engine instances per effective configuration.
// Entries are created lazily on first use of a configuration hash and never
// evicted: configuration rarely changes within one build run and engine
// construction is assumed expensive, so process lifetime equals cache
// lifetime.
//
// The registry is an explicit, injectable object rather than a hidden
// package global. The host constructs one and shares it across invocations.
type EngineRegistry struct {
	mu      sync.Mutex
	engines map[string]Engine
}

// NewEngineRegistry creates an empty registry.
func NewEngineRegistry() *EngineRegistry {
	return &EngineRegistry{
		engines: make(map[string]Engine),
	}
}

// GetOrCreate returns the engine stored for hash, invoking factory exactly
// once on first use. The lock is held across factory so concurrent first
// use of the same configuration still constructs a single instance. A
// factory failure propagates and caches nothing.
func (r *EngineRegistry) GetOrCreate(hash string, factory func() (Engine, error)) (Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[hash]; ok {
		return engine, nil
	}

	engine, err := factory()
	if err != nil {
		return nil, err
	}
	r.engines[hash] = engine

	return engine, nil
}

// Len reports how many distinct configurations have engines.
func (r *EngineRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.engines)
}
