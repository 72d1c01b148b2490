package pipeline

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/leapstack-labs/sparqlchat/internal/settings"
)

// Holder owns at most one pipeline. A new pipeline replaces the held one only
// after it has been built successfully.
type Holder struct {
	builder Builder

	// build serializes builds so concurrent first requests share one build.
	build sync.Mutex

	mu      sync.RWMutex
	current Pipeline
	built   settings.Settings
}

// NewHolder returns an empty Holder that builds pipelines with b.
func NewHolder(b Builder) *Holder {
	return &Holder{builder: b}
}

// Current returns the held pipeline, or nil.
func (h *Holder) Current() Pipeline {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Initialize builds a pipeline for s and holds it. On error the previously
// held pipeline, if any, is kept.
func (h *Holder) Initialize(ctx context.Context, s settings.Settings) error {
	h.build.Lock()
	defer h.build.Unlock()
	return h.initialize(ctx, s)
}

// EnsureInitialized builds a pipeline for s only if none is held.
func (h *Holder) EnsureInitialized(ctx context.Context, s settings.Settings) error {
	h.build.Lock()
	defer h.build.Unlock()
	if h.Current() != nil {
		return nil
	}
	return h.initialize(ctx, s)
}

func (h *Holder) initialize(ctx context.Context, s settings.Settings) error {
	p, err := h.builder.Build(ctx, s)
	if err != nil {
		return err
	}
	h.mu.Lock()
	prev := h.current
	h.current = p
	h.built = s
	h.mu.Unlock()
	closePipeline(prev)
	return nil
}

// Settings returns the settings the held pipeline was built with.
func (h *Holder) Settings() (settings.Settings, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.built, h.current != nil
}

// Close releases the held pipeline.
func (h *Holder) Close() {
	h.mu.Lock()
	prev := h.current
	h.current = nil
	h.mu.Unlock()
	closePipeline(prev)
}

func closePipeline(p Pipeline) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}

type registryEntry struct {
	holder   *Holder
	lastUsed time.Time
}

// Registry hands out one Holder per session. Holders unused for longer than
// the idle timeout are dropped by Sweep.
type Registry struct {
	builder Builder
	now     func() time.Time

	mu      sync.Mutex
	holders map[string]*registryEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry(b Builder) *Registry {
	return &Registry{
		builder: b,
		now:     time.Now,
		holders: make(map[string]*registryEntry),
	}
}

// Holder returns the holder for sessionID, creating it on first use.
func (r *Registry) Holder(sessionID string) *Holder {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.holders[sessionID]
	if !ok {
		e = &registryEntry{holder: NewHolder(r.builder)}
		r.holders[sessionID] = e
	}
	e.lastUsed = r.now()
	return e.holder
}

// Forget drops and closes the holder for sessionID.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	e, ok := r.holders[sessionID]
	delete(r.holders, sessionID)
	r.mu.Unlock()
	if ok {
		e.holder.Close()
	}
}

// Sweep drops the holders not used within idle and returns how many were
// dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Holder
	for id, e := range r.holders {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e.holder)
			delete(r.holders, id)
		}
	}
	r.mu.Unlock()

	for _, h := range stale {
		h.Close()
	}
	return len(stale)
}

// Len returns the number of sessions with a holder.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holders)
}
