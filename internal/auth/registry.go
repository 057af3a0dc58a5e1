package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/identity"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
	"golang.org/x/sync/singleflight"
)

// StorageName is the key the identity is persisted under within a browser session.
const StorageName = "auth"

// Registry hands out the auth session of each browser session and keeps the
// signed-in identity in storage across restarts. Sessions idle for longer
// than the sweep TTL are dropped from memory and restored on next use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
	now     func() time.Time

	provider identity.Provider
	storage  storage.Store
	logg     *logger.Logger
	metrics  *metrics.AuthMetrics
}

type entry struct {
	session    *Session
	lastAccess time.Time
}

func NewRegistry(provider identity.Provider, store storage.Store, logg *logger.Logger, m *metrics.AuthMetrics) *Registry {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		entries:  make(map[string]*entry),
		now:      time.Now,
		provider: provider,
		storage:  store,
		logg:     logg,
		metrics:  m,
	}
}

// Get returns the auth session for sessionID, restoring a persisted identity
// on first use. Storage failures are returned and not cached.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Session, error) {
	return r.resolve(ctx, sessionID, true)
}

// Peek returns the auth session for reading. A signed-out session with
// nothing held gets a detached session that is not kept and persists nothing.
func (r *Registry) Peek(ctx context.Context, sessionID string) (*Session, error) {
	return r.resolve(ctx, sessionID, false)
}

func (r *Registry) resolve(ctx context.Context, sessionID string, keepSignedOut bool) (*Session, error) {
	if s, ok := r.touch(sessionID); ok {
		return s, nil
	}

	key := "peek:" + sessionID
	if keepSignedOut {
		key = "get:" + sessionID
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if existing, ok := r.touch(sessionID); ok {
			return existing, nil
		}

		restored, err := r.load(context.WithoutCancel(ctx), sessionID)
		if err != nil {
			return nil, err
		}
		session := NewSession(SessionOptions{
			Provider:  r.provider,
			SessionID: sessionID,
			Logger:    r.logg,
			Metrics:   r.metrics,
			Initial:   restored,
		})
		if !keepSignedOut && restored == nil {
			return session, nil
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if e, ok := r.entries[sessionID]; ok {
			e.lastAccess = r.now()
			return e.session, nil
		}
		session.Subscribe(r.persister(sessionID))
		r.entries[sessionID] = &entry{session: session, lastAccess: r.now()}
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) touch(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastAccess = r.now()
	return e.session, true
}

// EvictIdle drops sessions not used since now-idleTTL and reports how many
// went. Their identities stay in storage.
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
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "auth.registry.swept")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) load(ctx context.Context, sessionID string) (*identity.Identity, error) {
	raw, ok, err := r.storage.Get(ctx, sessionID, StorageName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auth session")
	}
	if !ok {
		return nil, nil
	}

	var id identity.Identity
	if err := json.Unmarshal(raw, &id); err != nil || id.UserID == "" {
		warnCtx := r.logg.WithField(ctx, "session_id", sessionID)
		r.logg.Warn(warnCtx, "auth.hydrate.discarded")
		return nil, nil
	}
	return &id, nil
}

// persister writes every change after the initial replay. A failed write is
// logged; the in-memory session stays authoritative for this process.
func (r *Registry) persister(sessionID string) Observer {
	replayed := false
	return func(id identity.Identity, ok bool) {
		if !replayed {
			replayed = true
			return
		}

		ctx := r.logg.WithField(context.Background(), "session_id", sessionID)
		var err error
		if ok {
			var payload []byte
			payload, err = json.Marshal(id)
			if err == nil {
				err = r.storage.Put(ctx, sessionID, StorageName, payload)
			}
		} else {
			err = r.storage.Delete(ctx, sessionID, StorageName)
		}
		if err != nil {
			r.logg.Error(ctx, "auth.persist.failed", err)
		}
	}
}
