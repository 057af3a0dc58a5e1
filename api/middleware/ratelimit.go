package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"golang.org/x/time/rate"
)

// SessionRateLimiter applies a token bucket per browser session. Requests that
// start a new session share a bucket per client address instead. Buckets idle
// for longer than the configured TTL are evicted by a background loop.
type SessionRateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	logg    *logger.Logger

	mu       sync.Mutex
	limiters map[string]*sessionLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type sessionLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewSessionRateLimiter starts the eviction loop; call Stop to end it.
func NewSessionRateLimiter(cfg config.RateLimitConfig, logg *logger.Logger) *SessionRateLimiter {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	rl := &SessionRateLimiter{
		limit:    rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:    cfg.Burst,
		idleTTL:  idle,
		logg:     logg,
		limiters: make(map[string]*sessionLimiter),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cfg.RequestsPerMinute <= 0 {
		rl.limit = rate.Inf
	}
	if rl.burst < 1 {
		rl.burst = 1
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the eviction loop and waits for it to exit.
func (rl *SessionRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	<-rl.done
}

// Middleware must run after BrowserSession.
func (rl *SessionRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := SessionIDFromContext(ctx)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := "session:" + sessionID
		if IsNewSession(ctx) {
			key = "addr:" + remoteHost(r)
		}
		if !rl.limiterFor(key, time.Now()).Allow() {
			if rl.logg != nil {
				rl.logg.Warn(rl.logg.WithField(ctx, "limit_type", "session"), "rate_limit.blocked")
			}
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests. Please try again later."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len reports how many buckets are currently held.
func (rl *SessionRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *SessionRateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if sl, ok := rl.limiters[key]; ok {
		sl.lastAccess = now
		return sl.limiter
	}
	sl := &sessionLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: now}
	rl.limiters[key] = sl
	return sl.limiter
}

func (rl *SessionRateLimiter) cleanupLoop() {
	defer close(rl.done)
	ticker := time.NewTicker(rl.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *SessionRateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, sl := range rl.limiters {
		if now.Sub(sl.lastAccess) > rl.idleTTL {
			delete(rl.limiters, id)
		}
	}
}

func (rl *SessionRateLimiter) retryAfterSeconds() int {
	if rl.limit == rate.Inf || rl.limit <= 0 {
		return 1
	}
	secs := int(math.Ceil(1.0 / float64(rl.limit)))
	if secs < 1 {
		secs = 1
	}
	return secs
}
