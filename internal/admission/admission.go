// Package admission implements per-user gatekeeping for generation requests.
//
// Every incoming prompt passes four gates, in order, each short-circuiting on
// first failure:
//
//  1. external eligibility (channel membership), failing closed on check errors
//  2. daily quota (UTC calendar day, default 10 generations)
//  3. cooldown since the last *accepted* request (default 30s)
//  4. single-flight: at most one in-flight generation per user
//
// Check is side-effect free. Admit re-evaluates the in-memory gates and
// records the session start under one mutex hold, so two interleaved
// requests from the same user can never both pass: the membership call is
// the only suspension point and it happens before the lock is taken.
package admission

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/pepemp3/shillbot/internal/domain"
	"github.com/pepemp3/shillbot/internal/session"
)

// Defaults for the quota and cooldown gates.
const (
	DefaultDailyLimit = 10
	DefaultCooldown   = 30 * time.Second
)

var admissionsDenied = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shillbot_admissions_denied_total",
		Help: "Generation requests denied by the admission controller.",
	},
	[]string{"reason"},
)

// DeniedReason identifies which gate rejected a request.
type DeniedReason string

const (
	// DeniedMembership covers both "not a member" and "could not verify
	// membership"; verification failures deny rather than allow.
	DeniedMembership DeniedReason = "membership"
	// DeniedQuota means the daily generation limit is exhausted.
	DeniedQuota DeniedReason = "quota"
	// DeniedCooldown means the per-user cooldown window has not elapsed.
	DeniedCooldown DeniedReason = "cooldown"
	// DeniedInFlight means the user already has a generation in progress.
	DeniedInFlight DeniedReason = "in_flight"
)

// Denial describes a rejected request with enough detail for a specific,
// actionable user-facing message.
type Denial struct {
	Reason DeniedReason
	// RetryIn is the remaining cooldown; set only for DeniedCooldown.
	RetryIn time.Duration
	// Limit is the configured daily limit; set only for DeniedQuota.
	Limit int
}

// WaitSeconds returns the remaining cooldown rounded up to whole seconds,
// the figure quoted in the denial message.
func (d Denial) WaitSeconds() int {
	return int(math.Ceil(d.RetryIn.Seconds()))
}

// MembershipChecker verifies external eligibility (community membership)
// through the messaging gateway.
type MembershipChecker interface {
	// IsMember reports whether the user belongs to the required community.
	// An error means the check itself failed; callers treat that as denial.
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// Controller evaluates admission and owns the quota and cooldown maps.
// It is safe for concurrent use.
type Controller struct {
	membership MembershipChecker
	sessions   *session.Registry
	log        zerolog.Logger

	dailyLimit int
	cooldown   time.Duration
	clock      func() time.Time

	mu           sync.Mutex
	quotas       map[int64]domain.QuotaState
	lastAccepted map[int64]time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithDailyLimit overrides the daily generation limit.
func WithDailyLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.dailyLimit = n
		}
	}
}

// WithCooldown overrides the per-user cooldown window. Zero disables the
// cooldown gate entirely; negative values are ignored.
func WithCooldown(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewController constructs a Controller over the given membership checker
// and session registry.
func NewController(m MembershipChecker, reg *session.Registry, log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		membership:   m,
		sessions:     reg,
		log:          log.With().Str("component", "admission").Logger(),
		dailyLimit:   DefaultDailyLimit,
		cooldown:     DefaultCooldown,
		clock:        time.Now,
		quotas:       make(map[int64]domain.QuotaState),
		lastAccepted: make(map[int64]time.Time),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check evaluates all four gates without mutating any state. On success it
// returns the quota remaining after the slot about to be consumed
// (limit - count - 1); on failure it returns the denial.
//
// Check alone does not reserve anything: a caller that wants to start a
// generation uses Admit, which re-runs the in-memory gates atomically with
// the session start.
func (c *Controller) Check(ctx context.Context, userID int64) (remaining int, denial *Denial) {
	if d := c.checkMembership(ctx, userID); d != nil {
		return 0, d
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkLocked(userID)
}

// Admit runs the full gate sequence and, if every gate passes, records the
// session start and the accepted-request timestamp in the same critical
// section. It returns the session correlation key and the remaining quota.
func (c *Controller) Admit(ctx context.Context, userID, chatID int64, prompt string) (sessionKey string, remaining int, denial *Denial) {
	if d := c.checkMembership(ctx, userID); d != nil {
		admissionsDenied.WithLabelValues(string(d.Reason)).Inc()
		return "", 0, d
	}

	c.mu.Lock()
	remaining, denial = c.checkLocked(userID)
	if denial != nil {
		c.mu.Unlock()
		admissionsDenied.WithLabelValues(string(denial.Reason)).Inc()
		return "", 0, denial
	}
	// Accepted: update the cooldown marker before releasing the lock so no
	// concurrent request can slip between check and record.
	c.lastAccepted[userID] = c.clock()
	c.mu.Unlock()

	sessionKey = c.sessions.Start(userID, chatID, prompt)
	return sessionKey, remaining, nil
}

// checkMembership runs the external eligibility gate. Gateway errors deny.
func (c *Controller) checkMembership(ctx context.Context, userID int64) *Denial {
	member, err := c.membership.IsMember(ctx, userID)
	if err != nil {
		c.log.Warn().Err(err).Int64("user", userID).Msg("membership check failed, denying")
		return &Denial{Reason: DeniedMembership}
	}
	if !member {
		return &Denial{Reason: DeniedMembership}
	}
	return nil
}

// checkLocked evaluates the quota, cooldown, and single-flight gates.
// Caller holds c.mu.
func (c *Controller) checkLocked(userID int64) (int, *Denial) {
	now := c.clock()

	// Daily quota. A state from a previous day counts as zero.
	count := 0
	if q, ok := c.quotas[userID]; ok && q.Day == domain.DayKey(now) {
		count = q.Count
	}
	if count >= c.dailyLimit {
		return 0, &Denial{Reason: DeniedQuota, Limit: c.dailyLimit}
	}

	// Cooldown measured from the last accepted request.
	if last, ok := c.lastAccepted[userID]; ok {
		if elapsed := now.Sub(last); elapsed < c.cooldown {
			return 0, &Denial{Reason: DeniedCooldown, RetryIn: c.cooldown - elapsed}
		}
	}

	// Single flight per user.
	if c.sessions.ActiveFor(userID) {
		return 0, &Denial{Reason: DeniedInFlight}
	}

	// The slot about to be consumed is already subtracted.
	return c.dailyLimit - count - 1, nil
}

// RecordSuccess closes the session and consumes one daily-quota slot.
// Call exactly once per successful generation.
func (c *Controller) RecordSuccess(userID int64, sessionKey string) {
	c.sessions.End(sessionKey)

	now := c.clock()
	day := domain.DayKey(now)

	c.mu.Lock()
	q := c.quotas[userID]
	if q.Day != day {
		q = domain.QuotaState{Day: day}
	}
	q.Count++
	c.quotas[userID] = q
	c.mu.Unlock()
}

// RecordFailure closes the session without consuming quota, so a failed
// generation never costs the user a slot.
func (c *Controller) RecordFailure(sessionKey string) {
	c.sessions.End(sessionKey)
}

// SweepQuota drops quota entries whose day is not today and returns how
// many were removed. Stale cooldown markers are dropped alongside once they
// can no longer influence a decision.
func (c *Controller) SweepQuota() int {
	now := c.clock()
	day := domain.DayKey(now)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, q := range c.quotas {
		if q.Day != day {
			delete(c.quotas, id)
			removed++
		}
	}
	for id, last := range c.lastAccepted {
		if now.Sub(last) >= c.cooldown {
			delete(c.lastAccepted, id)
		}
	}
	return removed
}

// RunSweeper runs SweepQuota on the given interval until ctx is canceled.
func (c *Controller) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.SweepQuota()
		}
	}
}

// TrackedUsers reports how many users currently hold a quota entry.
// Operator status view only.
func (c *Controller) TrackedUsers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.quotas)
}
