package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
	"golang.org/x/sync/singleflight"
)

// Registry hands out the cart of each browser session, hydrating it from
// storage the first time the session is seen. Carts idle for longer than the
// sweep TTL are dropped from memory and hydrated again on next use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
	now     func() time.Time

	storage storage.Store
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

type entry struct {
	store      *Store
	lastAccess time.Time
}

func NewRegistry(store storage.Store, logg *logger.Logger, m *metrics.CartMetrics) *Registry {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
		storage: store,
		logg:    logg,
		metrics: m,
	}
}

// Get returns the session's cart. Concurrent first requests share a single
// hydration. Failed hydrations are not cached.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	return r.resolve(ctx, sessionID, true)
}

// Peek returns the session's cart for reading. A session with nothing held and
// nothing stored gets a detached empty cart that is not kept.
func (r *Registry) Peek(ctx context.Context, sessionID string) (*Store, error) {
	return r.resolve(ctx, sessionID, false)
}

func (r *Registry) resolve(ctx context.Context, sessionID string, keepEmpty bool) (*Store, error) {
	if s, ok := r.touch(sessionID); ok {
		return s, nil
	}

	// Readers and writers hydrate under separate keys so a reader never
	// hands a detached cart to a writer.
	key := "peek:" + sessionID
	if keepEmpty {
		key = "get:" + sessionID
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if existing, ok := r.touch(sessionID); ok {
			return existing, nil
		}

		hydrated, err := Hydrate(context.WithoutCancel(ctx), Options{
			Storage:   r.storage,
			SessionID: sessionID,
			Logger:    r.logg,
			Metrics:   r.metrics,
		})
		if err != nil {
			return nil, err
		}
		if !keepEmpty && hydrated.TotalQuantity() == 0 {
			return hydrated, nil
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if e, ok := r.entries[sessionID]; ok {
			e.lastAccess = r.now()
			return e.store, nil
		}
		r.entries[sessionID] = &entry{store: hydrated, lastAccess: r.now()}
		return hydrated, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) touch(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastAccess = r.now()
	return e.store, true
}

// EvictIdle drops carts not used since now-idleTTL and reports how many went.
func (r *Registry) EvictIdle(now time.Time, idleTTL time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if now.Sub(e.lastAccess) > idleTTL {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

// Sweep runs EvictIdle every idleTTL/2 until ctx is done.
func (r *Registry) Sweep(ctx context.Context, idleTTL time.Duration) {
	if idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := r.EvictIdle(now, idleTTL); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "cart.registry.swept")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Len reports how many carts are held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
