package bot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/pepemp3/shillbot/internal/admission"
	"github.com/pepemp3/shillbot/internal/domain"
	"github.com/pepemp3/shillbot/internal/generator"
	"github.com/pepemp3/shillbot/internal/sharing"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeGenerator struct {
	result  *generator.Result
	err     error
	caption string
	calls   int
}

func (f *fakeGenerator) Generate(context.Context, string) (*generator.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeGenerator) GenerateCaption(_ context.Context, lang language.Tag) (string, error) {
	return f.caption + "/" + lang.String(), nil
}

type fakeGate struct {
	denial    *admission.Denial
	admits    int
	successes []string
	failures  []string
}

func (f *fakeGate) Admit(_ context.Context, userID, chatID int64, prompt string) (string, int, *admission.Denial) {
	if f.denial != nil {
		return "", 0, f.denial
	}
	f.admits++
	return "session-1", 9, nil
}

func (f *fakeGate) RecordSuccess(_ int64, key string) { f.successes = append(f.successes, key) }
func (f *fakeGate) RecordFailure(key string)          { f.failures = append(f.failures, key) }

type fakeArtifacts struct {
	key        string
	original   []byte
	compressed []byte
	filename   string
}

func (f *fakeArtifacts) Put(key string, original, compressed []byte, filename string) {
	f.key, f.original, f.compressed, f.filename = key, original, compressed, filename
}

type fakeShares struct {
	payloads     map[string]domain.SharePayload
	built        []string
	confirmErr   error
	total        int
	mintedTokens int
	confirmed    []string
}

func newFakeShares() *fakeShares {
	return &fakeShares{payloads: map[string]domain.SharePayload{}, total: 3}
}

func (f *fakeShares) BuildShare(_ context.Context, promoText, artifactKey string) domain.SharePayload {
	p := domain.SharePayload{Key: "share-" + artifactKey, PromoText: promoText, ArtifactKey: artifactKey}
	f.payloads[p.Key] = p
	f.built = append(f.built, p.Key)
	return p
}

func (f *fakeShares) Share(key string) (domain.SharePayload, bool) {
	p, ok := f.payloads[key]
	return p, ok
}

func (f *fakeShares) TweetIntentURL(p domain.SharePayload) string {
	return "https://twitter.com/intent/tweet?text=" + p.Key
}

func (f *fakeShares) ConfirmNative(userID int64, name, shareKey string) (int, error) {
	if f.confirmErr != nil {
		return 0, f.confirmErr
	}
	f.confirmed = append(f.confirmed, shareKey)
	return f.total, nil
}

func (f *fakeShares) MintConfirmToken(int64, string) (string, error) {
	f.mintedTokens++
	return "tok-1", nil
}

func (f *fakeShares) ConfirmToken(userID int64, name, token string) (int, error) {
	if f.confirmErr != nil {
		return 0, f.confirmErr
	}
	f.confirmed = append(f.confirmed, token)
	return f.total, nil
}

type fakeScores struct {
	entries []domain.ScoreEntry
}

func (f *fakeScores) Top(int) []domain.ScoreEntry { return f.entries }

func newTestService(gen *fakeGenerator, gate *fakeGate, arts *fakeArtifacts, shares *fakeShares, scores *fakeScores) *Service {
	return NewService(gen, gate, arts, shares, scores, zerolog.Nop())
}

func TestGenerateSuccess(t *testing.T) {
	img := testPNG(t)
	gen := &fakeGenerator{result: &generator.Result{Image: img, Caption: "promo!", Mood: "cool"}}
	gate := &fakeGate{}
	arts := &fakeArtifacts{}
	shares := newFakeShares()

	g, err := newTestService(gen, gate, arts, shares, &fakeScores{}).
		Generate(context.Background(), 7, 100, "cool Pepe at work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Caption != "promo!" || g.Mood != "cool" || g.Remaining != 9 {
		t.Fatalf("unexpected generation: %+v", g)
	}
	if arts.key == "" || !bytes.Equal(arts.original, img) {
		t.Fatal("artifact not cached with original bytes")
	}
	if !strings.HasSuffix(arts.filename, ".jpg") {
		t.Fatalf("filename = %q", arts.filename)
	}
	if g.Share.Key != "share-"+arts.key {
		t.Fatalf("share not built for artifact: %+v", g.Share)
	}
	if len(gate.successes) != 1 || gate.successes[0] != "session-1" {
		t.Fatalf("RecordSuccess calls = %v", gate.successes)
	}
	if len(gate.failures) != 0 {
		t.Fatalf("unexpected RecordFailure calls: %v", gate.failures)
	}
}

func TestGenerateValidationBeforeAdmission(t *testing.T) {
	gen := &fakeGenerator{}
	gate := &fakeGate{}
	svc := newTestService(gen, gate, &fakeArtifacts{}, newFakeShares(), &fakeScores{})

	_, err := svc.Generate(context.Background(), 7, 100, "x")
	if !errors.Is(err, generator.ErrPromptTooShort) {
		t.Fatalf("expected ErrPromptTooShort, got %v", err)
	}
	if gate.admits != 0 || gen.calls != 0 {
		t.Fatal("nothing may run for an invalid prompt")
	}
}

func TestGenerateDenied(t *testing.T) {
	gen := &fakeGenerator{}
	gate := &fakeGate{denial: &admission.Denial{Reason: admission.DeniedQuota, Limit: 10}}
	svc := newTestService(gen, gate, &fakeArtifacts{}, newFakeShares(), &fakeScores{})

	_, err := svc.Generate(context.Background(), 7, 100, "cool Pepe")
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if denied.Denial.Reason != admission.DeniedQuota {
		t.Fatalf("reason = %v", denied.Denial.Reason)
	}
	if gen.calls != 0 {
		t.Fatal("generator must not run on denial")
	}
}

func TestGenerateFailureSymmetry(t *testing.T) {
	gen := &fakeGenerator{err: &generator.ProviderError{
		Class: generator.FailureSafety, Op: "image", Err: errors.New("blocked"),
	}}
	gate := &fakeGate{}
	arts := &fakeArtifacts{}
	shares := newFakeShares()
	svc := newTestService(gen, gate, arts, shares, &fakeScores{})

	_, err := svc.Generate(context.Background(), 7, 100, "some Pepe")
	if generator.Classify(err) != generator.FailureSafety {
		t.Fatalf("expected safety class through, got %v", err)
	}
	if len(gate.failures) != 1 || gate.failures[0] != "session-1" {
		t.Fatalf("RecordFailure calls = %v", gate.failures)
	}
	if len(gate.successes) != 0 {
		t.Fatal("success must not be recorded")
	}
	if arts.key != "" || len(shares.built) != 0 {
		t.Fatal("no artifact or share on failure")
	}
}

func TestGenerateCompressionFallback(t *testing.T) {
	// Undecodable image bytes: compression fails, original is kept.
	garbage := []byte("not an image at all")
	gen := &fakeGenerator{result: &generator.Result{Image: garbage, Caption: "promo"}}
	gate := &fakeGate{}
	arts := &fakeArtifacts{}
	svc := newTestService(gen, gate, arts, newFakeShares(), &fakeScores{})

	g, err := svc.Generate(context.Background(), 7, 100, "any Pepe scene")
	if err != nil {
		t.Fatalf("fallback must not fail the run: %v", err)
	}
	if !bytes.Equal(g.Photo, garbage) || !bytes.Equal(arts.compressed, garbage) {
		t.Fatal("original bytes must stand in for the failed derivative")
	}
	if len(gate.successes) != 1 {
		t.Fatal("run still counts as a success")
	}
}

func TestResolveNativeShare(t *testing.T) {
	shares := newFakeShares()
	shares.payloads["s1"] = domain.SharePayload{Key: "s1", PromoText: "text"}
	svc := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, shares, &fakeScores{})

	out, err := svc.ResolveNativeShare(7, "Alice", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Awarded || out.Total != 3 {
		t.Fatalf("expected award, got %+v", out)
	}
	if out.InlineQuery != domain.InlineSharePrefix+"s1" {
		t.Fatalf("inline query = %q", out.InlineQuery)
	}
}

func TestResolveNativeShareRepeatKeepsPicker(t *testing.T) {
	shares := newFakeShares()
	shares.payloads["s1"] = domain.SharePayload{Key: "s1"}
	shares.confirmErr = sharing.ErrAlreadyAwarded
	svc := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, shares, &fakeScores{})

	out, err := svc.ResolveNativeShare(7, "Alice", "s1")
	if err != nil {
		t.Fatalf("repeat click must still resolve: %v", err)
	}
	if out.Awarded {
		t.Fatal("repeat click must not award again")
	}
}

func TestResolveNativeShareUnknown(t *testing.T) {
	svc := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, newFakeShares(), &fakeScores{})
	if _, err := svc.ResolveNativeShare(7, "Alice", "missing"); !errors.Is(err, sharing.ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
}

func TestResolveTwitterShare(t *testing.T) {
	shares := newFakeShares()
	shares.payloads["s1"] = domain.SharePayload{Key: "s1"}
	svc := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, shares, &fakeScores{})

	out, err := svc.ResolveTwitterShare(7, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IntentURL == "" {
		t.Fatal("missing intent URL")
	}
	action, err := domain.ParseCallback(out.ConfirmData)
	if err != nil || action.Kind != domain.ActionConfirmTwitter || action.Token != "tok-1" {
		t.Fatalf("confirm data does not round-trip: %q (%v)", out.ConfirmData, err)
	}
	if shares.mintedTokens != 1 {
		t.Fatalf("minted tokens = %d", shares.mintedTokens)
	}
}

func TestInlineShare(t *testing.T) {
	shares := newFakeShares()
	shares.payloads["s1"] = domain.SharePayload{Key: "s1", PromoText: "promo"}
	svc := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, shares, &fakeScores{})

	p, ok := svc.InlineShare(domain.InlineSharePrefix + "s1")
	if !ok || p.PromoText != "promo" {
		t.Fatalf("inline share = (%+v, %v)", p, ok)
	}
	if _, ok := svc.InlineShare("random text"); ok {
		t.Fatal("non-share query must not resolve")
	}
}

func TestLeaderboardRendering(t *testing.T) {
	scores := &fakeScores{entries: []domain.ScoreEntry{
		{UserID: 1, Name: "Alice", Total: 5},
		{UserID: 2, Name: "", Total: 3},
	}}
	svc := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, newFakeShares(), scores)

	msg := svc.Leaderboard()
	if !strings.Contains(msg, "🥇 1. Alice: **5** очков") {
		t.Fatalf("missing first entry: %q", msg)
	}
	if !strings.Contains(msg, "User 2") {
		t.Fatalf("nameless user must fall back to id: %q", msg)
	}

	empty := newTestService(&fakeGenerator{}, &fakeGate{}, &fakeArtifacts{}, newFakeShares(), &fakeScores{})
	if empty.Leaderboard() != leaderboardEmptyMessage {
		t.Fatal("empty board must use the empty message")
	}
}

func TestPromoFollowsLanguage(t *testing.T) {
	gen := &fakeGenerator{caption: "promo"}
	svc := newTestService(gen, &fakeGate{}, &fakeArtifacts{}, newFakeShares(), &fakeScores{})

	got, err := svc.Promo(context.Background(), "/promo расскажи")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "promo/ru" {
		t.Fatalf("expected Russian caption, got %q", got)
	}
}
