// Package domain defines the in-memory data model shared across the bot:
// generation sessions, per-user quota and cooldown state, image artifacts,
// share payloads, and leaderboard entries. All state is process-lifetime;
// nothing here is persisted. Each type is exclusively owned by exactly one
// component (registry, admission controller, artifact cache, sharing
// coordinator, points ledger) and mutated only through that component's
// methods.
package domain

import "time"

// Session represents one in-flight generation attempt, from the moment
// admission is granted until it succeeds, fails, or is reaped as stale.
//
// Fields:
//   - Key: correlation key unique per attempt (user id + start time).
//   - UserID / ChatID: Telegram identifiers of the requester and the chat
//     the reply belongs to.
//   - Prompt: the raw user prompt, kept for operator diagnostics.
//   - StartedAt: monotonic-enough start timestamp used by the staleness sweep.
type Session struct {
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Prompt    string    `json:"prompt"`
	StartedAt time.Time `json:"started_at"`
}

// Age reports how long the session has been in flight as of now.
func (s Session) Age(now time.Time) time.Duration { return now.Sub(s.StartedAt) }

// QuotaState tracks how many generations a user has consumed on a given
// UTC calendar day. A state whose Day differs from the current day is
// stale and counts as zero; the admission controller rewrites it on the
// next successful generation.
type QuotaState struct {
	Day   string `json:"day"` // UTC date in time.DateOnly layout
	Count int    `json:"count"`
}

// DayKey returns the UTC calendar date used as the daily-quota boundary.
// The boundary is fixed to UTC so behavior does not depend on host-local
// time across deployments.
func DayKey(now time.Time) string { return now.UTC().Format(time.DateOnly) }

// Artifact holds the image bytes of one completed generation plus the
// lazily-populated public URL of its uploaded compressed form.
//
// Invariants:
//   - Compressed is always non-empty once the artifact is cached (the
//     compressor falls back to the original bytes when re-encoding fails).
//   - URL is set at most once; once non-empty it never changes and no
//     further upload is ever attempted for this artifact.
type Artifact struct {
	Original   []byte
	Compressed []byte
	Filename   string
	URL        string
}

// Uploaded reports whether the artifact already has a public URL.
func (a Artifact) Uploaded() bool { return a.URL != "" }

// ShareChannel identifies which sharing surface a confirmed share came
// through. The channel determines the point award.
type ShareChannel string

const (
	// ChannelTelegram is the platform-native inline share (1 point).
	ChannelTelegram ShareChannel = "telegram"
	// ChannelTwitter is the link-based share with confirmation (2 points).
	ChannelTwitter ShareChannel = "twitter"
)

// Points returns the fixed award for a confirmed share on this channel.
// Unknown channels award nothing.
func (c ShareChannel) Points() int {
	switch c {
	case ChannelTelegram:
		return 1
	case ChannelTwitter:
		return 2
	default:
		return 0
	}
}

// SharePayload is the shareable outcome of one completed generation,
// keyed by a short opaque identifier distinct from the session key.
// Payloads are immutable after creation.
//
// Fields:
//   - Key: opaque share key referenced by inline keyboard callbacks.
//   - PromoText: full promo caption (Markdown).
//   - TweetText: markup-stripped, truncated variant fit for the tweet
//     character budget, attribution suffix included.
//   - ArtifactKey: key into the artifact cache; resolved lazily by the
//     native-share path and eagerly by the link-share path.
//   - CardURL: link-share URL embedding the uploaded image, or "" when the
//     eager upload failed and the text-only fallback applies.
type SharePayload struct {
	Key         string
	PromoText   string
	TweetText   string
	ArtifactKey string
	CardURL     string
	CreatedAt   time.Time
}

// ScoreEntry is one leaderboard row.
type ScoreEntry struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Total  int    `json:"total"`
}
