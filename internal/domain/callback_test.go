package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseCallback_KnownPrefixes(t *testing.T) {
	cases := []struct {
		in       string
		kind     ActionKind
		shareKey string
		token    string
	}{
		{"share_tg:abc123", ActionShareTelegram, "abc123", ""},
		{"share_twitter:abc123", ActionShareTwitter, "abc123", ""},
		{"twitter_confirmed:tok-1", ActionConfirmTwitter, "", "tok-1"},
		{"  share_tg:padded  ", ActionShareTelegram, "padded", ""},
	}
	for _, tc := range cases {
		got, err := ParseCallback(tc.in)
		if err != nil {
			t.Fatalf("ParseCallback(%q) error: %v", tc.in, err)
		}
		if got.Kind != tc.kind {
			t.Errorf("ParseCallback(%q).Kind = %v; want %v", tc.in, got.Kind, tc.kind)
		}
		if got.ShareKey != tc.shareKey {
			t.Errorf("ParseCallback(%q).ShareKey = %q; want %q", tc.in, got.ShareKey, tc.shareKey)
		}
		if got.Token != tc.token {
			t.Errorf("ParseCallback(%q).Token = %q; want %q", tc.in, got.Token, tc.token)
		}
	}
}

func TestParseCallback_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"share_tg:",
		"share_twitter:",
		"twitter_confirmed:",
		"twitter_confirmed", // legacy bare form carries no token and must not award
		"unrelated",
		"share_tgX:abc",
	} {
		if _, err := ParseCallback(in); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseCallback(%q) err = %v; want ErrUnknownAction", in, err)
		}
	}
}

func TestCallbackRoundTrip(t *testing.T) {
	a, err := ParseCallback(ShareTelegramData("k1"))
	if err != nil || a.Kind != ActionShareTelegram || a.ShareKey != "k1" {
		t.Fatalf("telegram round trip = %+v, %v", a, err)
	}
	a, err = ParseCallback(ShareTwitterData("k2"))
	if err != nil || a.Kind != ActionShareTwitter || a.ShareKey != "k2" {
		t.Fatalf("twitter round trip = %+v, %v", a, err)
	}
	a, err = ParseCallback(ConfirmTwitterData("t3"))
	if err != nil || a.Kind != ActionConfirmTwitter || a.Token != "t3" {
		t.Fatalf("confirm round trip = %+v, %v", a, err)
	}
}

func TestInlineShareKey(t *testing.T) {
	if k, ok := InlineShareKey("share_content_xyz"); !ok || k != "xyz" {
		t.Fatalf("InlineShareKey = %q, %v; want xyz, true", k, ok)
	}
	if _, ok := InlineShareKey("share_content_"); ok {
		t.Fatal("empty key should not resolve")
	}
	if _, ok := InlineShareKey("random"); ok {
		t.Fatal("non-share query should not resolve")
	}
}

func TestShareChannelPoints(t *testing.T) {
	if got := ChannelTelegram.Points(); got != 1 {
		t.Errorf("telegram points = %d; want 1", got)
	}
	if got := ChannelTwitter.Points(); got != 2 {
		t.Errorf("twitter points = %d; want 2", got)
	}
	if got := ShareChannel("smoke-signal").Points(); got != 0 {
		t.Errorf("unknown channel points = %d; want 0", got)
	}
}

func TestDayKeyIsUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2025, 3, 10, 23, 30, 0, 0, loc)
	if got, want := DayKey(local), "2025-03-11"; got != want {
		t.Fatalf("DayKey = %q; want %q", got, want)
	}
}
