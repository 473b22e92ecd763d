package utils

import (
	"testing"
	"unicode/utf8"
)

func TestStripMarkdown(t *testing.T) {
	cases := map[string]string{
		"plain text":                      "plain text",
		"**bold** and _italic_":           "bold and italic",
		"[Telegram](https://t.me/x) link": "Telegram link",
		"💬 [TG](https://t.me/a) • 🐦 [X](https://x.com/b)": "💬 TG • 🐦 X",
		"`code` span": "code span",
		"":            "",
	}
	for in, want := range cases {
		if got := StripMarkdown(in); got != want {
			t.Errorf("StripMarkdown(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Errorf("under limit: got %q", got)
	}
	if got := TruncateRunes("hello world", 5); got != "hell…" {
		t.Errorf("clip: got %q", got)
	}
	if got := TruncateRunes("☃☃☃☃☃☃", 4); utf8.RuneCountInString(got) != 4 {
		t.Errorf("multibyte clip length = %d runes (%q)", utf8.RuneCountInString(got), got)
	}
	if got := TruncateRunes("anything", 0); got != "" {
		t.Errorf("max 0: got %q", got)
	}
	if got := TruncateRunes("ab", 1); got != "…" {
		t.Errorf("max 1: got %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "x", "y"); got != "x" {
		t.Errorf("FirstNonEmpty = %q; want x", got)
	}
	if got := FirstNonEmpty("", "   "); got != "" {
		t.Errorf("all empty = %q; want \"\"", got)
	}
}
