// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"regexp"
	"strings"
)

// Markdown constructs stripped by StripMarkdown. Telegram's Markdown
// dialect only, which is all the promo generator emits.
var (
	mdLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`) // [text](url) -> text
	mdEmphasis = regexp.MustCompile(`(\*\*|__|\*|_|` + "`" + `)`)
)

// StripMarkdown removes Telegram-Markdown markup from s, keeping link
// labels but dropping their URLs. Whitespace runs introduced by removed
// markup are collapsed.
func StripMarkdown(s string) string {
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdEmphasis.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TruncateRunes clips s to at most max runes, appending "…" when anything
// was dropped. The ellipsis counts against the budget so the result never
// exceeds max runes.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

// FirstNonEmpty returns the first non-empty string from a variadic list.
// If all values are empty, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
