package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pepemp3/shillbot/internal/domain"
	"github.com/pepemp3/shillbot/internal/sharing"
)

type fakeSessions struct {
	sessions []domain.Session
}

func (f *fakeSessions) Count() int                   { return len(f.sessions) }
func (f *fakeSessions) ListActive() []domain.Session { return f.sessions }

type fakeCounter struct{ n int }

func (f fakeCounter) Size() int         { return f.n }
func (f fakeCounter) TrackedUsers() int { return f.n }
func (f fakeCounter) ShareCount() int   { return f.n }

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/twitter/:cardID", h.TwitterCard)
	r.GET("/api/status", h.Status)
	r.POST("/api/create-share", h.CreateShare)
	return r
}

func TestTwitterCardRendersMeta(t *testing.T) {
	h := New(Deps{}, "https://cards.example.com", "https://cards.example.com/placeholder.jpg")
	r := newTestRouter(h)

	id := sharing.EncodeCardData(sharing.CardData{
		ImageURL:    "https://img.example.com/pepe.jpg",
		Title:       "Trader Pepe",
		Description: "To the moon",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/twitter/"+id, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Fatalf("Cache-Control = %q", got)
	}
	body := w.Body.String()
	for _, want := range []string{
		`<meta name="twitter:card" content="summary_large_image">`,
		`<meta name="twitter:title" content="Trader Pepe">`,
		`<meta property="og:image" content="https://img.example.com/pepe.jpg">`,
		`<meta property="og:url" content="https://cards.example.com/twitter/` + id + `">`,
		`<title>Trader Pepe</title>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestTwitterCardDefaults(t *testing.T) {
	h := New(Deps{}, "https://cards.example.com", "https://cards.example.com/placeholder.jpg")
	r := newTestRouter(h)

	id := sharing.EncodeCardData(sharing.CardData{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/twitter/"+id, nil))

	body := w.Body.String()
	if !strings.Contains(body, defaultCardTitle) {
		t.Fatalf("default title not applied")
	}
	if !strings.Contains(body, "https://cards.example.com/placeholder.jpg") {
		t.Fatalf("placeholder image not applied")
	}
}

func TestTwitterCardBadID(t *testing.T) {
	h := New(Deps{}, "https://cards.example.com", "")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/twitter/%21%21not-base64", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateShareRoundTrip(t *testing.T) {
	h := New(Deps{}, "https://cards.example.com", "")
	r := newTestRouter(h)

	payload := `{"imageUrl":"https://img.example.com/p.jpg","title":"T","description":"D","twitterText":"tweet"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/create-share", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp CreateShareResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	const prefix = "https://cards.example.com/twitter/"
	if !strings.HasPrefix(resp.ShareURL, prefix) {
		t.Fatalf("shareUrl = %q, want prefix %q", resp.ShareURL, prefix)
	}
	if resp.ShareURL != prefix+resp.ShareID {
		t.Fatalf("shareUrl %q does not embed shareId %q", resp.ShareURL, resp.ShareID)
	}
	data, err := sharing.DecodeCardData(resp.ShareID)
	if err != nil {
		t.Fatalf("decode card id: %v", err)
	}
	if data.ImageURL != "https://img.example.com/p.jpg" || data.TweetText != "tweet" {
		t.Fatalf("round-tripped card = %+v", data)
	}
	if !strings.HasPrefix(resp.TwitterURL, "https://twitter.com/intent/tweet?") ||
		!strings.Contains(resp.TwitterURL, "text=tweet") {
		t.Fatalf("twitterUrl = %q", resp.TwitterURL)
	}
}

func TestCreateShareRejectsMissingImage(t *testing.T) {
	h := New(Deps{}, "https://cards.example.com", "")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/create-share", strings.NewReader(`{"title":"T"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStatusSnapshot(t *testing.T) {
	sessions := &fakeSessions{sessions: []domain.Session{
		{Key: "k1", UserID: 7, ChatID: 7, Prompt: "pepe on mars", StartedAt: time.Now().Add(-2 * time.Second)},
	}}
	h := New(Deps{
		Sessions:  sessions,
		Artifacts: fakeCounter{n: 3},
		Admission: fakeCounter{n: 5},
		Shares:    fakeCounter{n: 2},
		Scores:    fakeCounter{n: 4},
	}, "https://cards.example.com", "")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ActiveSessions != 1 || len(resp.Sessions) != 1 {
		t.Fatalf("sessions = %d/%d, want 1/1", resp.ActiveSessions, len(resp.Sessions))
	}
	if resp.Sessions[0].Prompt != "pepe on mars" || resp.Sessions[0].AgeMillis <= 0 {
		t.Fatalf("session snapshot = %+v", resp.Sessions[0])
	}
	if resp.CachedArtifacts != 3 || resp.TrackedUsers != 5 || resp.Shares != 2 || resp.ScoredUsers != 4 {
		t.Fatalf("counters = %+v", resp)
	}
}

func TestStatusWithNilDeps(t *testing.T) {
	h := New(Deps{}, "https://cards.example.com", "")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.ActiveSessions != 0 {
		t.Fatalf("resp = %+v", resp)
	}
}
