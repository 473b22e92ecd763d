// Package generator – Client
//
// Client talks to the Gemini generative language API. Images go through the
// raw REST generateContent endpoint because image parts are not exposed on
// the OpenAI-compatible surface; captions go through the OpenAI-compatible
// endpoint via sashabaranov/go-openai.
package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

const (
	// DefaultBaseURL is the production Gemini API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultImageModel renders the Pepe artwork.
	DefaultImageModel = "gemini-2.5-flash-image-preview"

	// DefaultCaptionModel writes the promo caption.
	DefaultCaptionModel = "gemini-2.0-flash-exp"

	defaultTimeout = 120 * time.Second
)

// linksSuffix is appended to every generated caption. The URLs stay hidden
// behind markdown link text.
const linksSuffix = "\n\n💬 [Telegram](https://t.me/pepemp3) • 🐦 [X/Twitter](https://x.com/pepegotavoice)"

// Result bundles the two artifacts produced for one prompt.
type Result struct {
	Image   []byte
	Caption string
	Mood    string
	Lang    language.Tag
}

// Client is a Gemini-backed content generator. Safe for concurrent use.
type Client struct {
	apiKey       string
	baseURL      string
	imageModel   string
	captionModel string
	httpClient   *http.Client
	captions     *openai.Client
	log          zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternative API root. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModels overrides the image and caption model identifiers.
func WithModels(imageModel, captionModel string) Option {
	return func(c *Client) {
		if imageModel != "" {
			c.imageModel = imageModel
		}
		if captionModel != "" {
			c.captionModel = captionModel
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRand fixes the randomness source. Used by tests.
func WithRand(rng *rand.Rand) Option {
	return func(c *Client) { c.rng = rng }
}

// NewClient builds a Client with the given API key.
func NewClient(apiKey string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		imageModel:   DefaultImageModel,
		captionModel: DefaultCaptionModel,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		log:          log,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL + "/openai"
	cfg.HTTPClient = c.httpClient
	c.captions = openai.NewClientWithConfig(cfg)
	return c
}

// generateContent request/response shapes for the REST image endpoint.
// The API has emitted both inline_data and inlineData part keys, so the
// response type accepts either.
type contentPart struct {
	Text string `json:"text,omitempty"`
}

type contentTurn struct {
	Role  string        `json:"role"`
	Parts []contentPart `json:"parts"`
}

type generateRequest struct {
	Contents []contentTurn `json:"contents"`
}

type inlineData struct {
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data"`
}

type responsePart struct {
	Text            string      `json:"text,omitempty"`
	InlineDataSnake *inlineData `json:"inline_data,omitempty"`
	InlineDataCamel *inlineData `json:"inlineData,omitempty"`
}

func (p responsePart) inline() *inlineData {
	if p.InlineDataSnake != nil {
		return p.InlineDataSnake
	}
	return p.InlineDataCamel
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateImage renders the given prompt and returns the raw image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []contentTurn{{Role: "user", Parts: []contentPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.imageModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Class: FailureGeneric, Op: "image", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Class: classifyStatus(resp.StatusCode, string(raw)),
			Op:    "image",
			Err:   fmt.Errorf("gemini HTTP %d: %s", resp.StatusCode, truncateBody(raw)),
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			inline := part.inline()
			if inline == nil || inline.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(inline.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image payload: %w", err)
			}
			return data, nil
		}
	}
	return nil, &ProviderError{
		Class: FailureGeneric,
		Op:    "image",
		Err:   fmt.Errorf("no image part in response"),
	}
}

// GenerateCaption writes a promo caption in the given language. The
// narrative angle is drawn locally so repeated calls vary; the fixed
// project links are appended to whatever the model returns.
func (c *Client) GenerateCaption(ctx context.Context, lang language.Tag) (string, error) {
	c.rngMu.Lock()
	prompt := captionPrompt(c.rng, lang)
	c.rngMu.Unlock()

	resp, err := c.captions.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.captionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		class := classifyMessage(err.Error())
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			class = classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", &ProviderError{Class: class, Op: "caption", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ProviderError{
			Class: FailureGeneric,
			Op:    "caption",
			Err:   fmt.Errorf("empty caption response"),
		}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content) + linksSuffix, nil
}

// Generate produces the image and caption for one user scene. The scene is
// enriched with a mood (taken from the prompt when present, random
// otherwise) and both provider calls run in parallel; either failure fails
// the whole generation.
func (c *Client) Generate(ctx context.Context, scene string) (*Result, error) {
	lang := DetectLanguage(scene)

	mood, ok := ExtractMood(scene)
	if !ok {
		c.rngMu.Lock()
		mood = RandomMood(c.rng)
		c.rngMu.Unlock()
	}
	imagePrompt := BuildImagePrompt(scene, mood)

	res := &Result{Mood: mood, Lang: lang}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := c.GenerateImage(gctx, imagePrompt)
		if err != nil {
			return err
		}
		res.Image = img
		return nil
	})
	g.Go(func() error {
		caption, err := c.GenerateCaption(gctx, lang)
		if err != nil {
			return err
		}
		res.Caption = caption
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("mood", mood).
		Str("lang", lang.String()).
		Int("image_bytes", len(res.Image)).
		Msg("content generated")
	return res, nil
}

// truncateBody keeps provider error bodies log-sized.
func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
