// Package artifact holds generated images between generation and sharing.
//
// An artifact enters the cache as (original, compressed) byte pairs and
// acquires a public URL lazily: nothing is uploaded until a sharing path
// actually needs the URL. Concurrent demands for the same artifact are
// collapsed into one blob-store call via singleflight; a failed upload is
// never cached, so the next demand retries, while a successful URL is
// permanent and ends all blob-store interaction for that key.
package artifact

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pepemp3/shillbot/internal/domain"
)

var uploads = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shillbot_artifact_uploads_total",
		Help: "Blob-store upload attempts by outcome.",
	},
	[]string{"outcome"}, // "ok", "error"
)

// ErrNotFound is returned when no artifact exists under the requested key.
var ErrNotFound = errors.New("artifact not found")

// Uploader publishes compressed image bytes and returns a public URL.
// Implemented by the blob-store adapter; upload is the only slow or
// fallible operation the cache depends on.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// Cache is the in-memory artifact store. Entries live for the process
// lifetime; the remote objects carry their own expiry metadata and are
// cleaned up out of process. Safe for concurrent use.
type Cache struct {
	uploader Uploader
	log      zerolog.Logger

	mu      sync.Mutex
	entries map[string]*domain.Artifact
	flight  singleflight.Group
}

// NewCache constructs a Cache over the given uploader.
func NewCache(u Uploader, log zerolog.Logger) *Cache {
	return &Cache{
		uploader: u,
		log:      log.With().Str("component", "artifact").Logger(),
		entries:  make(map[string]*domain.Artifact),
	}
}

// Put stores an artifact under key. The compressed form must already be
// produced; Put never uploads anything.
func (c *Cache) Put(key string, original, compressed []byte, filename string) {
	c.mu.Lock()
	c.entries[key] = &domain.Artifact{
		Original:   original,
		Compressed: compressed,
		Filename:   filename,
	}
	c.mu.Unlock()
}

// Get returns a copy of the artifact under key.
func (c *Cache) Get(key string) (domain.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.entries[key]; ok {
		return *a, true
	}
	return domain.Artifact{}, false
}

// EnsureUploaded returns the public URL for key, uploading on first demand.
//
// Semantics:
//   - unknown key: ErrNotFound
//   - URL already set: returned immediately, no blob-store interaction
//   - otherwise: exactly one upload is attempted no matter how many callers
//     arrive concurrently; all of them observe the same result
//   - on upload failure the error is returned and nothing is cached, so a
//     later call retries
func (c *Cache) EnsureUploaded(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	a, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return "", ErrNotFound
	}
	if a.URL != "" {
		url := a.URL
		c.mu.Unlock()
		return url, nil
	}
	data, filename := a.Compressed, a.Filename
	c.mu.Unlock()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// Re-check under the lock: a previous flight may have finished
		// between our snapshot and this call.
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.URL != "" {
			url := cur.URL
			c.mu.Unlock()
			return url, nil
		}
		c.mu.Unlock()

		url, err := c.uploader.Upload(ctx, data, filename)
		if err != nil {
			uploads.WithLabelValues("error").Inc()
			c.log.Warn().Err(err).Str("key", key).Msg("artifact upload failed")
			return "", err
		}
		uploads.WithLabelValues("ok").Inc()

		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.URL == "" {
			cur.URL = url
		}
		c.mu.Unlock()
		return url, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Size reports how many artifacts are cached. Operator status view only.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
