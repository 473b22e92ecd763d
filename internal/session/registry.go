// Package session tracks in-flight generation attempts. The registry exists
// for two reasons: the admission controller consults it for the
// single-flight-per-user gate, and a periodic sweep force-ends sessions that
// never reached End (crashed handler, hung provider call) so an abandoned
// session cannot lock a user out forever.
//
// ListActive is observability-only. Business logic must never iterate the
// active set; anything that needs per-user state asks ActiveFor instead.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pepemp3/shillbot/internal/domain"
)

// Default sweep parameters. A session older than DefaultMaxAge is considered
// abandoned; the sweep runs every DefaultSweepInterval for the life of the
// process.
const (
	DefaultMaxAge        = 5 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

// Registry owns the set of in-flight sessions. It is safe for concurrent use.
type Registry struct {
	maxAge time.Duration
	log    zerolog.Logger
	clock  func() time.Time

	mu     sync.Mutex
	seq    uint64
	active map[string]domain.Session // keyed by correlation key
}

// Option customizes a Registry.
type Option func(*Registry)

// WithMaxAge overrides the staleness threshold used by ReapStale.
func WithMaxAge(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.maxAge = d
		}
	}
}

// WithClock overrides the time source. Tests use this to age sessions
// without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRegistry constructs an empty Registry.
func NewRegistry(log zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		maxAge: DefaultMaxAge,
		log:    log.With().Str("component", "session").Logger(),
		clock:  time.Now,
		active: make(map[string]domain.Session),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start records a new in-flight session and returns its correlation key.
// The caller (admission controller) is responsible for having already
// established that the user holds no other active session.
func (r *Registry) Start(userID, chatID int64, prompt string) string {
	now := r.clock()

	r.mu.Lock()
	r.seq++
	// user id + start time, plus a sequence so two starts within the same
	// clock tick still get distinct keys.
	key := fmt.Sprintf("%d-%d-%d", userID, now.Unix(), r.seq)
	r.active[key] = domain.Session{
		Key:       key,
		UserID:    userID,
		ChatID:    chatID,
		Prompt:    prompt,
		StartedAt: now,
	}
	r.mu.Unlock()

	r.log.Debug().Str("session", key).Int64("user", userID).Msg("session started")
	return key
}

// End removes a session. Ending an already-removed session (e.g. one the
// sweep reaped first) is a no-op; both success and failure paths call End
// unconditionally.
func (r *Registry) End(key string) {
	r.mu.Lock()
	_, ok := r.active[key]
	delete(r.active, key)
	r.mu.Unlock()

	if ok {
		r.log.Debug().Str("session", key).Msg("session ended")
	}
}

// ActiveFor reports whether userID currently holds an in-flight session.
func (r *Registry) ActiveFor(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.active {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// Count returns the number of in-flight sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// ListActive returns a snapshot of all in-flight sessions for the operator
// status view. Order is unspecified; callers must not derive behavior from it.
func (r *Registry) ListActive() []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Session, 0, len(r.active))
	for _, s := range r.active {
		out = append(out, s)
	}
	return out
}

// ReapStale force-ends every session older than the staleness threshold and
// returns how many were removed. Each reaping is logged: a reaped session
// means a generation path skipped its End call, which is worth investigating
// even though the sweep recovered it.
func (r *Registry) ReapStale() int {
	now := r.clock()

	r.mu.Lock()
	var reaped []domain.Session
	for key, s := range r.active {
		if s.Age(now) > r.maxAge {
			reaped = append(reaped, s)
			delete(r.active, key)
		}
	}
	r.mu.Unlock()

	for _, s := range reaped {
		r.log.Warn().
			Str("session", s.Key).
			Int64("user", s.UserID).
			Dur("age", s.Age(now)).
			Msg("reaped stale session")
	}
	return len(reaped)
}

// RunSweeper runs ReapStale on the given interval until ctx is canceled.
// Production wiring calls this once from main; tests call ReapStale directly
// instead of depending on wall-clock timers.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.ReapStale()
		}
	}
}
