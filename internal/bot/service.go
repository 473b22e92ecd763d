// Package bot – Service
//
// Service is the transport-free orchestration layer: it validates prompts,
// walks the admission gates, drives generation and artifact caching, and
// resolves share interactions. The telebot glue translates updates into
// Service calls and Service results into messages, nothing more, so the
// whole conversation flow is testable without a Telegram connection.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/pepemp3/shillbot/internal/admission"
	"github.com/pepemp3/shillbot/internal/artifact"
	"github.com/pepemp3/shillbot/internal/domain"
	"github.com/pepemp3/shillbot/internal/generator"
	"github.com/pepemp3/shillbot/internal/sharing"
)

var generations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shillbot_generations_total",
		Help: "Prompt-to-image runs by outcome.",
	},
	[]string{"outcome"},
)

// ContentGenerator produces image bytes and promo captions.
type ContentGenerator interface {
	Generate(ctx context.Context, scene string) (*generator.Result, error)
	GenerateCaption(ctx context.Context, lang language.Tag) (string, error)
}

// Admitter is the admission controller surface the flow needs.
type Admitter interface {
	Admit(ctx context.Context, userID, chatID int64, prompt string) (sessionKey string, remaining int, denial *admission.Denial)
	RecordSuccess(userID int64, sessionKey string)
	RecordFailure(sessionKey string)
}

// ArtifactPutter caches a completed generation's image bytes.
type ArtifactPutter interface {
	Put(key string, original, compressed []byte, filename string)
}

// ShareCoordinator resolves share interactions and awards points.
type ShareCoordinator interface {
	BuildShare(ctx context.Context, promoText, artifactKey string) domain.SharePayload
	Share(key string) (domain.SharePayload, bool)
	TweetIntentURL(p domain.SharePayload) string
	ConfirmNative(userID int64, name, shareKey string) (int, error)
	MintConfirmToken(userID int64, shareKey string) (string, error)
	ConfirmToken(userID int64, name, token string) (int, error)
}

// Scoreboard is the read side of the points ledger.
type Scoreboard interface {
	Top(n int) []domain.ScoreEntry
}

// DeniedError carries an admission denial through the error return.
type DeniedError struct {
	Denial admission.Denial
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("admission denied: %s", e.Denial.Reason)
}

// Generation is the result of one successful prompt-to-image run.
type Generation struct {
	// Photo is the compressed derivative sent back to the chat.
	Photo     []byte
	Caption   string
	Share     domain.SharePayload
	Mood      string
	Remaining int
}

// NativeShare is the resolved native (in-platform) share interaction.
type NativeShare struct {
	Payload domain.SharePayload
	// InlineQuery seeds the switch-inline button that opens the chat picker.
	InlineQuery string
	// Awarded is false when this user already collected the native point
	// for this share.
	Awarded bool
	Total   int
}

// TwitterShare is the resolved link-based share interaction.
type TwitterShare struct {
	Payload   domain.SharePayload
	IntentURL string
	// ConfirmData is the callback payload for the one-time confirm button.
	ConfirmData string
}

// Service wires the conversation flow together.
type Service struct {
	gen       ContentGenerator
	gate      Admitter
	artifacts ArtifactPutter
	shares    ShareCoordinator
	scores    Scoreboard
	log       zerolog.Logger
}

// NewService builds the orchestration layer.
func NewService(gen ContentGenerator, gate Admitter, artifacts ArtifactPutter, shares ShareCoordinator, scores Scoreboard, log zerolog.Logger) *Service {
	return &Service{
		gen:       gen,
		gate:      gate,
		artifacts: artifacts,
		shares:    shares,
		scores:    scores,
		log:       log,
	}
}

// Generate runs the full prompt-to-image flow for one user request.
//
// Session bookkeeping is symmetric: every failure after admission calls
// RecordFailure (session ends, quota slot not consumed), success calls
// RecordSuccess. Validation and denial errors happen before a session
// exists and touch nothing.
func (s *Service) Generate(ctx context.Context, userID, chatID int64, rawPrompt string) (*Generation, error) {
	prompt, err := generator.ValidatePrompt(rawPrompt)
	if err != nil {
		return nil, err
	}

	sessionKey, remaining, denial := s.gate.Admit(ctx, userID, chatID, prompt)
	if denial != nil {
		return nil, &DeniedError{Denial: *denial}
	}

	res, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.gate.RecordFailure(sessionKey)
		generations.WithLabelValues(string(generator.Classify(err))).Inc()
		return nil, err
	}

	compressed, err := artifact.Compress(res.Image)
	if err != nil {
		// Original bytes still produce a usable result.
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("compression failed, using original image")
		compressed = res.Image
	}

	key := uuid.NewString()
	s.artifacts.Put(key, res.Image, compressed, key+".jpg")
	share := s.shares.BuildShare(ctx, res.Caption, key)

	s.gate.RecordSuccess(userID, sessionKey)
	generations.WithLabelValues("success").Inc()
	s.log.Info().
		Int64("user_id", userID).
		Str("mood", res.Mood).
		Str("share_key", share.Key).
		Int("remaining_quota", remaining).
		Msg("generation completed")

	return &Generation{
		Photo:     compressed,
		Caption:   res.Caption,
		Share:     share,
		Mood:      res.Mood,
		Remaining: remaining,
	}, nil
}

// Promo generates a standalone promo caption. The caption language follows
// the command text, matching the prompt flow.
func (s *Service) Promo(ctx context.Context, text string) (string, error) {
	return s.gen.GenerateCaption(ctx, generator.DetectLanguage(text))
}

// ResolveNativeShare handles the in-platform share button: it awards the
// native point at most once per user per share and hands back the inline
// query that opens the chat picker.
func (s *Service) ResolveNativeShare(userID int64, name, shareKey string) (*NativeShare, error) {
	payload, ok := s.shares.Share(shareKey)
	if !ok {
		return nil, sharing.ErrShareNotFound
	}

	out := &NativeShare{
		Payload:     payload,
		InlineQuery: domain.InlineSharePrefix + shareKey,
	}
	total, err := s.shares.ConfirmNative(userID, name, shareKey)
	switch {
	case err == nil:
		out.Awarded = true
		out.Total = total
	case errors.Is(err, sharing.ErrAlreadyAwarded):
		// Repeat clicks still open the picker, they just stop paying.
	default:
		return nil, err
	}
	return out, nil
}

// ResolveTwitterShare handles the link share button: it builds the tweet
// intent URL and mints the one-time confirmation token that backs the
// "confirm publication" button.
func (s *Service) ResolveTwitterShare(userID int64, shareKey string) (*TwitterShare, error) {
	payload, ok := s.shares.Share(shareKey)
	if !ok {
		return nil, sharing.ErrShareNotFound
	}
	token, err := s.shares.MintConfirmToken(userID, shareKey)
	if err != nil {
		return nil, err
	}
	return &TwitterShare{
		Payload:     payload,
		IntentURL:   s.shares.TweetIntentURL(payload),
		ConfirmData: domain.ConfirmTwitterData(token),
	}, nil
}

// ConfirmTwitter redeems a confirmation token and returns the user's new
// point total.
func (s *Service) ConfirmTwitter(userID int64, name, token string) (int, error) {
	return s.shares.ConfirmToken(userID, name, token)
}

// InlineShare resolves an inline query into its share payload.
func (s *Service) InlineShare(query string) (domain.SharePayload, bool) {
	key, ok := domain.InlineShareKey(query)
	if !ok {
		return domain.SharePayload{}, false
	}
	return s.shares.Share(key)
}

// Leaderboard renders the top ten scorers.
func (s *Service) Leaderboard() string {
	top := s.scores.Top(10)
	entries := make([]leaderboardEntry, 0, len(top))
	for _, e := range top {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("User %d", e.UserID)
		}
		entries = append(entries, leaderboardEntry{Name: name, Points: e.Total})
	}
	return leaderboardMessage(entries)
}
