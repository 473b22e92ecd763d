package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusSession is one in-flight generation as shown to operators.
type StatusSession struct {
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	Prompt    string `json:"prompt"`
	AgeMillis int64  `json:"age_ms"`
}

// StatusResponse is the operator status snapshot.
type StatusResponse struct {
	Status          string          `json:"status"`
	Time            time.Time       `json:"time"`
	ActiveSessions  int             `json:"active_sessions"`
	Sessions        []StatusSession `json:"sessions"`
	CachedArtifacts int             `json:"cached_artifacts"`
	TrackedUsers    int             `json:"tracked_users"`
	Shares          int             `json:"shares"`
	ScoredUsers     int             `json:"scored_users"`
}

// Status reports in-memory counters for operators.
func (h *Handler) Status(c *gin.Context) {
	now := time.Now().UTC()
	resp := StatusResponse{
		Status:   "ok",
		Time:     now,
		Sessions: []StatusSession{},
	}
	if s := h.deps.Sessions; s != nil {
		resp.ActiveSessions = s.Count()
		for _, sess := range s.ListActive() {
			resp.Sessions = append(resp.Sessions, StatusSession{
				UserID:    sess.UserID,
				ChatID:    sess.ChatID,
				Prompt:    sess.Prompt,
				AgeMillis: sess.Age(now).Milliseconds(),
			})
		}
	}
	if a := h.deps.Artifacts; a != nil {
		resp.CachedArtifacts = a.Size()
	}
	if ad := h.deps.Admission; ad != nil {
		resp.TrackedUsers = ad.TrackedUsers()
	}
	if sh := h.deps.Shares; sh != nil {
		resp.Shares = sh.ShareCount()
	}
	if sc := h.deps.Scores; sc != nil {
		resp.ScoredUsers = sc.Size()
	}
	ok(c, http.StatusOK, resp)
}

// Health answers the liveness check.
func (h *Handler) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
