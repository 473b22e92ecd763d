package generator

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestValidatePrompt(t *testing.T) {
	if _, err := ValidatePrompt("   "); !errors.Is(err, ErrPromptEmpty) {
		t.Fatalf("expected ErrPromptEmpty, got %v", err)
	}
	if _, err := ValidatePrompt("hi"); !errors.Is(err, ErrPromptTooShort) {
		t.Fatalf("expected ErrPromptTooShort, got %v", err)
	}
	if _, err := ValidatePrompt(strings.Repeat("я", MaxPromptLen+1)); !errors.Is(err, ErrPromptTooLong) {
		t.Fatalf("expected ErrPromptTooLong, got %v", err)
	}

	got, err := ValidatePrompt("  cool Pepe at work  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "cool Pepe at work" {
		t.Fatalf("expected trimmed prompt, got %q", got)
	}
}

func TestValidatePromptRuneBounds(t *testing.T) {
	// Multibyte runes count as one character each.
	if _, err := ValidatePrompt("жаб"); err != nil {
		t.Fatalf("three Cyrillic runes should pass, got %v", err)
	}
	if _, err := ValidatePrompt(strings.Repeat("ж", MaxPromptLen)); err != nil {
		t.Fatalf("exactly the limit should pass, got %v", err)
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]language.Tag{
		"cool Pepe at work":     language.English,
		"грустный Pepe дома":    language.Russian,
		"Pepe с кофе":           language.Russian,
		"PEPE TO THE MOON 🚀":    language.English,
		"mixed ёлка in english": language.Russian,
	}
	for prompt, want := range cases {
		if got := DetectLanguage(prompt); got != want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", prompt, got, want)
		}
	}
}

func TestExtractMood(t *testing.T) {
	cases := []struct {
		prompt string
		mood   string
		ok     bool
	}{
		{"happy Pepe at work", "cheerful", true},
		{"a VERY Joyful frog", "cheerful", true},
		{"злой Pepe в офисе", "злой", true},
		{"wealthy Pepe on a yacht", "rich", true},
		{"Pepe drinking coffee", "", false},
	}
	for _, tc := range cases {
		mood, ok := ExtractMood(tc.prompt)
		if ok != tc.ok || mood != tc.mood {
			t.Errorf("ExtractMood(%q) = (%q, %v), want (%q, %v)", tc.prompt, mood, ok, tc.mood, tc.ok)
		}
	}
}

func TestRandomMoodDrawsFromPool(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[RandomMood(rng)] = true
	}
	for mood := range seen {
		found := false
		for _, m := range Moods() {
			if m == mood {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("RandomMood produced unknown mood %q", mood)
		}
	}
	if len(seen) < 2 {
		t.Fatalf("expected variety across 100 draws, saw %d moods", len(seen))
	}
}

func TestBuildImagePrompt(t *testing.T) {
	got := BuildImagePrompt("Pepe at the beach", "cheerful")
	if !strings.Contains(got, "Scene: Pepe at the beach") {
		t.Fatalf("prompt missing scene: %q", got)
	}
	if !strings.Contains(got, "Mood: cheerful") {
		t.Fatalf("prompt missing mood: %q", got)
	}
	if !strings.Contains(got, "Pepe the Frog") {
		t.Fatalf("prompt missing style template: %q", got)
	}
}

func TestMoodsCopy(t *testing.T) {
	first := Moods()
	if len(first) != 12 {
		t.Fatalf("expected 12 moods, got %d", len(first))
	}
	first[0] = "mutated"
	if Moods()[0] == "mutated" {
		t.Fatal("Moods must return a copy")
	}
}
