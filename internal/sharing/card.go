// Package sharing – card payload codec
//
// Link-based shares point at the card server, which is stateless: everything
// the card page needs (image URL, texts) travels inside the share identifier
// itself as base64url-encoded JSON. The codec lives here so the coordinator
// that mints links and the HTTP handler that decodes them agree on one format.
package sharing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// CardData is the payload embedded in a card share identifier.
type CardData struct {
	ImageURL    string `json:"imageUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TweetText   string `json:"twitterText"`
}

// EncodeCardData serializes d into a URL-safe share identifier.
func EncodeCardData(d CardData) string {
	b, _ := json.Marshal(d) // CardData has no unmarshalable fields
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCardData parses a share identifier back into its CardData.
// Undecodable identifiers yield an error; the card endpoint maps that to 404.
func DecodeCardData(id string) (CardData, error) {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return CardData{}, fmt.Errorf("decode share id: %w", err)
	}
	var d CardData
	if err := json.Unmarshal(raw, &d); err != nil {
		return CardData{}, fmt.Errorf("parse share payload: %w", err)
	}
	return d, nil
}
