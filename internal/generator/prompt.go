// Package generator – prompt enrichment
//
// A raw user prompt becomes a full image prompt in three steps: validate,
// pick a mood (extracted from the prompt via synonym tables, random
// otherwise), and wrap the scene in the fixed Pepe style template. Caption
// language follows the prompt: any Cyrillic selects Russian.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// Prompt length bounds in runes, after trimming.
const (
	MinPromptLen = 3
	MaxPromptLen = 500
)

// Prompt validation errors. The bot layer renders these bilingually.
var (
	ErrPromptEmpty    = errors.New("prompt is empty")
	ErrPromptTooShort = errors.New("prompt too short")
	ErrPromptTooLong  = errors.New("prompt too long")
)

// ValidatePrompt trims the prompt and checks the length bounds, returning
// the cleaned prompt.
func ValidatePrompt(prompt string) (string, error) {
	p := strings.TrimSpace(prompt)
	switch n := utf8.RuneCountInString(p); {
	case n == 0:
		return "", ErrPromptEmpty
	case n < MinPromptLen:
		return "", ErrPromptTooShort
	case n > MaxPromptLen:
		return "", ErrPromptTooLong
	}
	return p, nil
}

// DetectLanguage picks the caption language for a prompt: Russian when it
// contains any Cyrillic rune, English otherwise.
func DetectLanguage(prompt string) language.Tag {
	for _, r := range prompt {
		if unicode.Is(unicode.Cyrillic, r) {
			return language.Russian
		}
	}
	return language.English
}

// Moods available to the prompt template, in both supported languages.
var moods = []string{
	"cheerful", "rich", "cool", "angry", "sad", "emotionless",
	"веселый", "богатый", "крутой", "злой", "грустный", "безэмоциональный",
}

// moodSynonyms maps each base mood to the words that select it when they
// appear anywhere in the prompt.
var moodSynonyms = map[string][]string{
	"cheerful":         {"happy", "joyful", "cheerful"},
	"веселый":          {"счастливый", "радостный", "веселый"},
	"rich":             {"wealthy", "rich", "expensive"},
	"богатый":          {"богатый", "состоятельный", "денежный"},
	"cool":             {"cool", "awesome", "stylish"},
	"крутой":           {"крутой", "классный", "стильный"},
	"angry":            {"angry", "mad", "furious"},
	"злой":             {"злой", "сердитый", "разъяренный"},
	"sad":              {"sad", "depressed", "melancholy"},
	"грустный":         {"грустный", "печальный", "унылый"},
	"emotionless":      {"emotionless", "neutral", "blank"},
	"безэмоциональный": {"безэмоциональный", "нейтральный", "пустой"},
}

// Moods returns the mood names for the /moods command, English first.
func Moods() []string {
	out := make([]string, len(moods))
	copy(out, moods)
	return out
}

// ExtractMood finds the first mood whose synonym appears in the prompt.
func ExtractMood(prompt string) (string, bool) {
	p := strings.ToLower(prompt)
	for _, base := range moods {
		for _, syn := range moodSynonyms[base] {
			if strings.Contains(p, syn) {
				return base, true
			}
		}
	}
	return "", false
}

// RandomMood returns a mood drawn from rng, used when the prompt names none.
func RandomMood(rng *rand.Rand) string {
	return moods[rng.Intn(len(moods))]
}

// pepeTemplate is the fixed style wrapper applied to every image prompt.
const pepeTemplate = `Create a high-quality 3D render of Pepe the Frog with large glossy eyes, wearing a holographic jacket and neon headphones. Style: synthwave + vaporwave aesthetic, minimalism. Bright neon colors, glossy reflections, Pixar animation style.

Scene: %s
Mood: %s

Ensure Pepe is the main character and maintain the iconic frog appearance with the signature aesthetic.`

// BuildImagePrompt wraps the user's scene and the chosen mood in the fixed
// Pepe style template.
func BuildImagePrompt(scene, mood string) string {
	return fmt.Sprintf(pepeTemplate, scene, mood)
}
