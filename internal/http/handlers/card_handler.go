// Package handlers – Twitter/Open Graph card page
//
// The share flow embeds the whole card payload, base64url-encoded, in the
// path segment of the card link. The page itself is stateless: crawlers and
// humans alike get the same HTML rendered straight from the decoded
// payload, with sensible defaults for any missing field.
package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepemp3/shillbot/internal/http/middleware"
	"github.com/pepemp3/shillbot/internal/sharing"
)

const (
	defaultCardTitle       = "AI-Generated Pepe Meme"
	defaultCardDescription = "🤖 AI-Generated Pepe Memes with $PEPE.MP3! Create hilarious crypto memes with advanced AI. Join the future of meme culture! #PepeMP3 #TON #MemeCoin"
)

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>

    <meta name="twitter:card" content="summary_large_image">
    <meta name="twitter:site" content="@PEPEGOTAVOICE">
    <meta name="twitter:creator" content="@PEPEGOTAVOICE">
    <meta name="twitter:title" content="{{.Title}}">
    <meta name="twitter:description" content="{{.Description}}">
    <meta name="twitter:image" content="{{.ImageURL}}">
    <meta name="twitter:image:alt" content="AI-Generated Pepe Meme">
    <meta name="twitter:image:width" content="1024">
    <meta name="twitter:image:height" content="1024">

    <meta property="og:type" content="website">
    <meta property="og:title" content="{{.Title}}">
    <meta property="og:description" content="{{.Description}}">
    <meta property="og:image" content="{{.ImageURL}}">
    <meta property="og:image:type" content="image/jpeg">
    <meta property="og:image:width" content="1024">
    <meta property="og:image:height" content="1024">
    <meta property="og:image:alt" content="AI-Generated Pepe Meme">
    <meta property="og:image:secure_url" content="{{.ImageURL}}">
    <meta property="og:url" content="{{.PageURL}}">
    <meta property="og:site_name" content="PEPE.MP3 - AI Meme Generator">

    <meta name="robots" content="index, follow">
    <meta name="author" content="PEPEGOTAVOICE">

    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            text-align: center;
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .card {
            background: rgba(255, 255, 255, 0.1);
            border-radius: 20px;
            padding: 40px;
            backdrop-filter: blur(15px);
            border: 1px solid rgba(255, 255, 255, 0.2);
            box-shadow: 0 20px 40px rgba(0, 0, 0, 0.3);
        }
        .pepe-image {
            max-width: 100%;
            max-height: 400px;
            height: auto;
            border-radius: 15px;
            box-shadow: 0 10px 30px rgba(0, 0, 0, 0.4);
            margin: 20px auto;
            display: block;
        }
        .title {
            font-size: 2.8em;
            margin-bottom: 15px;
            text-shadow: 2px 2px 8px rgba(0, 0, 0, 0.6);
            font-weight: bold;
        }
        .description {
            font-size: 1.3em;
            margin-bottom: 35px;
            line-height: 1.7;
            opacity: 0.95;
        }
        .cta-button {
            display: inline-block;
            background: linear-gradient(45deg, #1DA1F2, #0d8bdb);
            color: white;
            padding: 18px 35px;
            text-decoration: none;
            border-radius: 30px;
            font-weight: bold;
            font-size: 1.2em;
        }
        .footer {
            margin-top: 40px;
            opacity: 0.8;
            font-size: 0.9em;
        }
        @media (max-width: 600px) {
            .card { padding: 25px; }
            .title { font-size: 2.2em; }
            .description { font-size: 1.1em; }
        }
    </style>
</head>
<body>
    <div class="card">
        <h1 class="title">🐸 $PEPE.MP3</h1>
        {{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Title}}" class="pepe-image" onerror="this.style.display='none'" />{{end}}
        <p class="description">{{.Description}}</p>
        <a href="https://t.me/pepemp3" class="cta-button">
            🎨 Create Your Own Pepe
        </a>
        <div class="footer">
            <p>AI-Generated Pepe Memes • @PEPEGOTAVOICE</p>
        </div>
    </div>
</body>
</html>
`))

// cardView is the template input for one card page.
type cardView struct {
	Title       string
	Description string
	ImageURL    string
	PageURL     string
}

// TwitterCard renders the Open Graph / Twitter Card HTML for a share link.
// The :cardID path segment is the encoded card payload.
func (h *Handler) TwitterCard(c *gin.Context) {
	data, err := sharing.DecodeCardData(c.Param("cardID"))
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("undecodable card id")
		fail(c, http.StatusNotFound, ErrCodeNotFound, "card not found")
		return
	}

	view := cardView{
		Title:       data.Title,
		Description: data.Description,
		ImageURL:    data.ImageURL,
		PageURL:     h.cardBaseURL + c.Request.URL.Path,
	}
	if view.Title == "" {
		view.Title = defaultCardTitle
	}
	if view.Description == "" {
		view.Description = defaultCardDescription
	}
	if view.ImageURL == "" {
		view.ImageURL = h.placeholderURL
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := cardTemplate.Execute(c.Writer, view); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("card template render failed")
	}
}
