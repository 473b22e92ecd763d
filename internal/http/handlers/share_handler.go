package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pepemp3/shillbot/internal/sharing"
)

// CreateShareRequest is the payload for minting a card link out of band,
// e.g. from an operator script that already has a hosted image URL.
type CreateShareRequest struct {
	ImageURL    string `json:"imageUrl" binding:"required,url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TweetText   string `json:"twitterText"`
}

// CreateShareResponse carries the minted card identity plus ready-to-use
// links: the card page itself and a tweet intent pointing at it.
type CreateShareResponse struct {
	ShareID    string `json:"shareId"`
	ShareURL   string `json:"shareUrl"`
	TwitterURL string `json:"twitterUrl"`
}

// CreateShare mints a card link for an already hosted image.
func (h *Handler) CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "imageUrl is required and must be a valid URL")
		return
	}

	tweet := strings.TrimSpace(req.TweetText)
	id := sharing.EncodeCardData(sharing.CardData{
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		TweetText:   tweet,
	})
	shareURL := h.cardBaseURL + "/twitter/" + id

	intent := url.Values{}
	if tweet != "" {
		intent.Set("text", tweet)
	}
	intent.Set("url", shareURL)

	ok(c, http.StatusOK, CreateShareResponse{
		ShareID:    id,
		ShareURL:   shareURL,
		TwitterURL: "https://twitter.com/intent/tweet?" + intent.Encode(),
	})
}
