package handlers

import "github.com/pepemp3/shillbot/internal/domain"

// SessionLister reports in-flight generations.
type SessionLister interface {
	Count() int
	ListActive() []domain.Session
}

// ArtifactCounter reports how many generated images are cached.
type ArtifactCounter interface {
	Size() int
}

// AdmissionStats reports how many users have admission state tracked.
type AdmissionStats interface {
	TrackedUsers() int
}

// ShareStats reports how many shares are registered.
type ShareStats interface {
	ShareCount() int
}

// ScoreStats reports how many users hold points.
type ScoreStats interface {
	Size() int
}

// Deps carries the collaborators the HTTP layer reads from. Any nil field
// simply zeroes the corresponding status counters.
type Deps struct {
	Sessions  SessionLister
	Artifacts ArtifactCounter
	Admission AdmissionStats
	Shares    ShareStats
	Scores    ScoreStats
}

// Handler bundles the card server's endpoints.
type Handler struct {
	deps           Deps
	cardBaseURL    string
	placeholderURL string
}

// New builds a Handler. cardBaseURL is the externally visible origin used
// when composing share links, without a trailing slash.
func New(deps Deps, cardBaseURL, placeholderURL string) *Handler {
	return &Handler{
		deps:           deps,
		cardBaseURL:    cardBaseURL,
		placeholderURL: placeholderURL,
	}
}
