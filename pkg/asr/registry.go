package asr

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// EngineHandle binds a lazily-loaded Provider to its serialization lock.
// Only one inference may be in flight per engine at a time, matching the
// underlying model runtimes' lack of safe concurrent use.
type EngineHandle struct {
	ID       string
	Provider Provider

	mu sync.Mutex
}

// Recognize serializes access to the underlying Provider.
func (h *EngineHandle) Recognize(ctx context.Context, audio io.Reader, audioConfig AudioConfig, config RecognitionConfig) (*RecognitionResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Provider.Recognize(ctx, audio, audioConfig, config)
}

// Builder constructs the Provider behind an engine id on first use.
type Builder func() (Provider, error)

// Registry holds the bank of configured ASR engines, loading each lazily on
// first use and deduplicating concurrent first-use callers.
type Registry struct {
	mu        sync.RWMutex
	handles   map[string]*EngineHandle
	builders  map[string]Builder
	aliases   map[string]string
	defaultID string
	group     singleflight.Group
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handles:  make(map[string]*EngineHandle),
		builders: make(map[string]Builder),
		aliases:  make(map[string]string),
	}
}

// Register declares an engine id with its lazy builder. It does not build
// the provider; the first Get call does. The first id ever registered
// becomes the fallback default engine for unrecognized ids (spec.md §4.5:
// "whisper* → default engine; unknown → default").
func (r *Registry) Register(id string, build Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[id] = build
	if r.defaultID == "" {
		r.defaultID = id
	}
}

// Alias maps an additional id (e.g. "whisper-1", "Systran/faster-whisper-large-v2")
// onto an already-registered canonical engine id.
func (r *Registry) Alias(alias, canonical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = canonical
}

// IDs returns every canonical engine id known to the registry (not aliases).
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.builders))
	for id := range r.builders {
		ids = append(ids, id)
	}
	return ids
}

// resolve maps an external id onto a canonical engine id: an aliased id
// resolves to its target, an id with its own builder resolves to itself,
// and anything else (unknown ids) falls back to the default engine, per
// spec.md §4.5's "whisper* → default engine; unknown → default".
func (r *Registry) resolve(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[id]; ok {
		return canonical
	}
	if _, ok := r.builders[id]; ok {
		return id
	}
	return r.defaultID
}

// Get resolves id through the alias table and returns its EngineHandle,
// building the provider on first use. Concurrent first callers for the same
// id share one build via singleflight.
func (r *Registry) Get(id string) (*EngineHandle, error) {
	canonical := r.resolve(id)

	r.mu.RLock()
	if h, ok := r.handles[canonical]; ok {
		r.mu.RUnlock()
		return h, nil
	}
	build, ok := r.builders[canonical]
	r.mu.RUnlock()

	if !ok {
		return nil, &Error{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("no engines registered, cannot resolve %q", id)}
	}

	v, err, _ := r.group.Do(canonical, func() (interface{}, error) {
		r.mu.RLock()
		if h, ok := r.handles[canonical]; ok {
			r.mu.RUnlock()
			return h, nil
		}
		r.mu.RUnlock()

		provider, err := build()
		if err != nil {
			return nil, &Error{Code: ErrCodeProviderError, Message: fmt.Sprintf("loading engine %q", canonical), Err: err}
		}

		h := &EngineHandle{ID: canonical, Provider: provider}

		r.mu.Lock()
		r.handles[canonical] = h
		r.mu.Unlock()

		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EngineHandle), nil
}

// Close releases every loaded provider's resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, h := range r.handles {
		if err := h.Provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
