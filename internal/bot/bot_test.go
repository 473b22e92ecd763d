package bot

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/pepemp3/shillbot/internal/domain"
)

func TestPromoInlineResultCarriesMarkdownContent(t *testing.T) {
	payload := domain.SharePayload{
		Key:       "share-1",
		PromoText: "🐸 *Pepe* to the moon",
	}
	result := promoInlineResult(payload)

	if got := result.ResultID(); got != "share-1" {
		t.Fatalf("result id = %q, want %q", got, "share-1")
	}
	content, ok := result.Content.(*tele.InputTextMessageContent)
	if !ok {
		t.Fatalf("content = %T, want *tele.InputTextMessageContent", result.Content)
	}
	if content.Text != payload.PromoText {
		t.Fatalf("content text = %q, want %q", content.Text, payload.PromoText)
	}
	if content.ParseMode != tele.ModeMarkdown {
		t.Fatalf("parse mode = %q, want %q", content.ParseMode, tele.ModeMarkdown)
	}
}

func TestAwardNoticesFollowChannelPoints(t *testing.T) {
	telegram := pointsAwardedNotice(domain.ChannelTelegram.Points(), 3)
	if !strings.Contains(telegram, "+1") || !strings.Contains(telegram, "3") {
		t.Fatalf("telegram notice = %q", telegram)
	}

	twitter := pointsAwardedNotice(domain.ChannelTwitter.Points(), 5)
	if !strings.Contains(twitter, "+2") || !strings.Contains(twitter, "Twitter") {
		t.Fatalf("twitter notice = %q", twitter)
	}
}
