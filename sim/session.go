package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/facmaker/facmaker/sim/trace"
)

// Session pairs an editable Factory with its most recent Cache.
//
// Edits and regeneration are serialized; readers call Cache from any goroutine and always
// see a complete cache, either the previous one or the newly built one. Edits mark the
// session stale but never regenerate on their own.
type Session struct {
	mu      sync.Mutex
	factory *Factory
	cfg     CacheConfig
	stale   bool

	cache atomic.Pointer[Cache]
}

// NewSession builds the initial cache of factory over cfg.Horizon ticks.
func NewSession(ctx context.Context, factory *Factory, cfg CacheConfig) (*Session, error) {
	s := &Session{factory: factory, cfg: cfg}
	c, err := factory.GenerateCacheContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.cache.Store(c)
	return s, nil
}

// Cache returns the latest fully built cache.
func (s *Session) Cache() *Cache {
	return s.cache.Load()
}

// Stale reports whether the factory was edited since the cache was built.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Edit applies fn to the factory. The cache is left untouched until Regenerate.
func (s *Session) Edit(fn func(*Factory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.factory); err != nil {
		return err
	}
	s.stale = true
	return nil
}

// SetHorizon changes the horizon used by the next Regenerate.
func (s *Session) SetHorizon(horizon int64) error {
	if horizon < 0 {
		return fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Horizon = horizon
	s.stale = true
	return nil
}

// SetTrace changes the tracing used by the next Regenerate.
func (s *Session) SetTrace(cfg trace.TraceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Trace = cfg
}

// Regenerate rebuilds the cache from scratch and publishes it.
// On error the previous cache stays published.
func (s *Session) Regenerate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.factory.GenerateCacheContext(ctx, s.cfg)
	if err != nil {
		return err
	}
	s.cache.Store(c)
	s.stale = false
	logrus.Debugf("cache regenerated: %d items, %d ticks", len(c.items), c.ticks)
	return nil
}
