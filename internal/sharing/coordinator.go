// Package sharing turns completed generations into shareable artifacts and
// guards the point awards behind them.
//
// Two share surfaces exist per generation. The platform-native share resolves
// its image URL lazily, on the click that actually shares; the link-based
// share needs an upload-backed URL inside the link itself, so it resolves
// eagerly at build time and degrades to a text-only tweet when the upload
// fails. Point awards are bound to one-time confirmation state per
// (share, user, channel): clicking a share button twice, or replaying a
// confirmation callback, never produces a second award.
package sharing

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/pepemp3/shillbot/internal/domain"
	"github.com/pepemp3/shillbot/internal/utils"
)

// Tweet sizing. The budget mirrors the external platform's card preview
// limit; the attribution suffix is always appended and reserved for.
const (
	DefaultTweetBudget = 250
	DefaultAttribution = "@PEPEGOTAVOICE"
)

var pointsAwarded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shillbot_points_awarded_total",
		Help: "Points awarded for confirmed shares, by channel.",
	},
	[]string{"channel"},
)

// Errors surfaced to the callback handlers.
var (
	// ErrShareNotFound means the share key references no known payload.
	ErrShareNotFound = errors.New("share not found")
	// ErrTokenInvalid means a confirmation token is unknown, already spent,
	// or presented by a different user than it was minted for.
	ErrTokenInvalid = errors.New("confirmation token invalid or spent")
	// ErrAlreadyAwarded means this user already collected the award for
	// this share on this channel.
	ErrAlreadyAwarded = errors.New("share already rewarded")
)

// ArtifactResolver resolves an artifact key to a public URL, uploading on
// first demand. Satisfied by *artifact.Cache.
type ArtifactResolver interface {
	EnsureUploaded(ctx context.Context, key string) (string, error)
}

// Scorer credits points and returns the new total. Satisfied by
// *points.Ledger.
type Scorer interface {
	Add(userID int64, name string, delta int) int
}

// confirmToken is a minted, not-yet-spent confirmation.
type confirmToken struct {
	userID   int64
	shareKey string
	channel  domain.ShareChannel
}

// claimKey identifies one collected award.
type claimKey struct {
	shareKey string
	userID   int64
	channel  domain.ShareChannel
}

// Coordinator owns share payloads, confirmation tokens, and the claimed-award
// set. Safe for concurrent use.
type Coordinator struct {
	artifacts ArtifactResolver
	scores    Scorer
	log       zerolog.Logger

	cardBaseURL string // e.g. "https://cards.example.com", "" disables card links
	tweetBudget int
	attribution string
	clock       func() time.Time

	mu      sync.Mutex
	shares  map[string]domain.SharePayload
	tokens  map[string]confirmToken
	claimed map[claimKey]struct{}
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithCardBaseURL sets the public base URL of the card server. An empty
// value disables card links entirely; link shares then always use the
// text-only tweet intent.
func WithCardBaseURL(u string) Option {
	return func(c *Coordinator) { c.cardBaseURL = u }
}

// WithTweetBudget overrides the tweet character budget.
func WithTweetBudget(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.tweetBudget = n
		}
	}
}

// WithAttribution overrides the fixed attribution suffix.
func WithAttribution(s string) Option {
	return func(c *Coordinator) { c.attribution = s }
}

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(a ArtifactResolver, s Scorer, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		artifacts:   a,
		scores:      s,
		log:         log.With().Str("component", "sharing").Logger(),
		tweetBudget: DefaultTweetBudget,
		attribution: DefaultAttribution,
		clock:       time.Now,
		shares:      make(map[string]domain.SharePayload),
		tokens:      make(map[string]confirmToken),
		claimed:     make(map[claimKey]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BuildShare creates the share payload for a completed generation.
//
// The tweet text is derived from promoText with markup stripped and clipped
// so that text plus attribution fits the budget. The card link is resolved
// eagerly: the external preview crawler needs an upload-backed image URL
// inside the link, so the upload happens now or the link falls back to the
// text-only variant (CardURL empty). The native share path is left untouched
// here; it resolves lazily on invocation.
func (c *Coordinator) BuildShare(ctx context.Context, promoText, artifactKey string) domain.SharePayload {
	p := domain.SharePayload{
		Key:         uuid.NewString(),
		PromoText:   promoText,
		TweetText:   c.tweetText(promoText),
		ArtifactKey: artifactKey,
		CreatedAt:   c.clock(),
	}

	if c.cardBaseURL != "" && artifactKey != "" {
		imgURL, err := c.artifacts.EnsureUploaded(ctx, artifactKey)
		if err != nil {
			// Upload failures never reach the user; the link share simply
			// degrades to text-only. A later native share retries.
			c.log.Warn().Err(err).Str("share", p.Key).Msg("eager upload failed, text-only link share")
		} else {
			p.CardURL = c.cardBaseURL + "/twitter/" + EncodeCardData(CardData{
				ImageURL:    imgURL,
				Title:       "AI-Generated Pepe Meme",
				Description: p.TweetText,
				TweetText:   p.TweetText,
			})
		}
	}

	c.mu.Lock()
	c.shares[p.Key] = p
	c.mu.Unlock()
	return p
}

// Share returns the payload stored under key.
func (c *Coordinator) Share(key string) (domain.SharePayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.shares[key]
	return p, ok
}

// ResolveNative returns the share payload plus an image URL for the
// platform-native share flow, uploading lazily on this first demand. An
// empty URL means the upload failed and the share proceeds text-only.
func (c *Coordinator) ResolveNative(ctx context.Context, key string) (domain.SharePayload, string, error) {
	p, ok := c.Share(key)
	if !ok {
		return domain.SharePayload{}, "", ErrShareNotFound
	}
	if p.ArtifactKey == "" {
		return p, "", nil
	}
	imgURL, err := c.artifacts.EnsureUploaded(ctx, p.ArtifactKey)
	if err != nil {
		c.log.Warn().Err(err).Str("share", key).Msg("lazy upload failed, text-only native share")
		return p, "", nil
	}
	return p, imgURL, nil
}

// TweetIntentURL builds the twitter intent link for a share payload:
// card-backed when the eager upload succeeded, text-only otherwise. Both
// variants are equally valid shares.
func (c *Coordinator) TweetIntentURL(p domain.SharePayload) string {
	if p.CardURL != "" {
		return "https://twitter.com/intent/tweet?url=" + url.QueryEscape(p.CardURL)
	}
	return "https://twitter.com/intent/tweet?text=" + url.QueryEscape(p.TweetText)
}

// ConfirmNative awards the native-share point for (share, user), at most
// once. Returns the user's new total.
func (c *Coordinator) ConfirmNative(userID int64, name, shareKey string) (int, error) {
	c.mu.Lock()
	if _, ok := c.shares[shareKey]; !ok {
		c.mu.Unlock()
		return 0, ErrShareNotFound
	}
	ck := claimKey{shareKey: shareKey, userID: userID, channel: domain.ChannelTelegram}
	if _, dup := c.claimed[ck]; dup {
		c.mu.Unlock()
		return c.scores.Add(userID, name, 0), ErrAlreadyAwarded
	}
	c.claimed[ck] = struct{}{}
	c.mu.Unlock()

	pointsAwarded.WithLabelValues(string(domain.ChannelTelegram)).Inc()
	return c.scores.Add(userID, name, domain.ChannelTelegram.Points()), nil
}

// MintConfirmToken issues a single-use token that a later ConfirmToken call
// redeems for the link-share award. Minting is free; the award is still
// bounded to once per (share, user, channel) no matter how many tokens are
// minted.
func (c *Coordinator) MintConfirmToken(userID int64, shareKey string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.shares[shareKey]; !ok {
		return "", ErrShareNotFound
	}
	tok := uuid.NewString()
	c.tokens[tok] = confirmToken{userID: userID, shareKey: shareKey, channel: domain.ChannelTwitter}
	return tok, nil
}

// ConfirmToken redeems a confirmation token and returns the new total.
// A successful lookup spends the token; a replayed or foreign token yields
// ErrTokenInvalid, and a second award attempt for the same share yields
// ErrAlreadyAwarded.
func (c *Coordinator) ConfirmToken(userID int64, name, token string) (int, error) {
	c.mu.Lock()
	t, ok := c.tokens[token]
	if !ok || t.userID != userID {
		c.mu.Unlock()
		return 0, ErrTokenInvalid
	}
	delete(c.tokens, token)

	ck := claimKey{shareKey: t.shareKey, userID: userID, channel: t.channel}
	if _, dup := c.claimed[ck]; dup {
		c.mu.Unlock()
		return c.scores.Add(userID, name, 0), ErrAlreadyAwarded
	}
	c.claimed[ck] = struct{}{}
	c.mu.Unlock()

	pointsAwarded.WithLabelValues(string(t.channel)).Inc()
	return c.scores.Add(userID, name, t.channel.Points()), nil
}

// tweetText derives the link-share text: markup stripped, clipped to the
// budget minus the attribution, attribution appended.
func (c *Coordinator) tweetText(promoText string) string {
	body := utils.StripMarkdown(promoText)
	budget := c.tweetBudget - len([]rune(c.attribution)) - 1 // separating space
	if budget < 0 {
		budget = 0
	}
	body = utils.TruncateRunes(body, budget)
	if body == "" {
		return c.attribution
	}
	return body + " " + c.attribution
}

// ShareCount reports how many share payloads are held. Operator status only.
func (c *Coordinator) ShareCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shares)
}
