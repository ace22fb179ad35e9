// Package voicetext makes model output safe for text-to-speech playback.
package voicetext

import (
	"regexp"
	"strings"
)

// DefaultCharBudget is the response length above which the normalizer keeps
// only the first two sentences.
const DefaultCharBudget = 300

// symbolWords expands characters a TTS engine would mispronounce or skip.
var symbolWords = []struct{ symbol, word string }{
	{"&", " and "},
	{"@", " at "},
	{"#", " number "},
	{"$", " dollars "},
	{"%", " percent "},
	{"+", " plus "},
}

// initialisms are spelled out letter by letter. Matched on word boundaries so
// words containing the sequence are left alone.
var initialisms = map[string]string{
	"API": "A P I",
	"URL": "U R L",
	"FAQ": "F A Q",
	"CEO": "C E O",
	"SMS": "S M S",
}

// contractions convert formal phrasing into natural spoken forms. Applied in
// both sentence-initial and lowercase forms.
var contractions = []struct{ formal, casual string }{
	{"I will", "I'll"},
	{"I am", "I'm"},
	{"You are", "You're"},
	{"It is", "It's"},
	{"That is", "That's"},
	{"We are", "We're"},
	{"They are", "They're"},
	{"Cannot", "Can't"},
	{"Do not", "Don't"},
	{"Would not", "Wouldn't"},
	{"Could not", "Couldn't"},
}

var (
	initialismRe = buildInitialismRe()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func buildInitialismRe() *regexp.Regexp {
	keys := make([]string, 0, len(initialisms))
	for k := range initialisms {
		keys = append(keys, k)
	}
	return regexp.MustCompile(`\b(` + strings.Join(keys, "|") + `)\b`)
}

// Normalizer rewrites agent replies into speech-safe text.
type Normalizer struct {
	charBudget int
}

// New creates a normalizer. charBudget <= 0 selects the default.
func New(charBudget int) *Normalizer {
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	return &Normalizer{charBudget: charBudget}
}

// Normalize is a deterministic transform: already speech-safe text passes
// through unchanged.
func (n *Normalizer) Normalize(text string) string {
	out := text

	// Markup characters carry no meaning in speech.
	out = strings.NewReplacer("**", "", "*", "", "_", "", "`", "").Replace(out)

	for _, c := range contractions {
		out = strings.ReplaceAll(out, c.formal, c.casual)
		out = strings.ReplaceAll(out, strings.ToLower(c.formal), strings.ToLower(c.casual))
	}

	out = initialismRe.ReplaceAllStringFunc(out, func(m string) string {
		return initialisms[m]
	})

	for _, s := range symbolWords {
		out = strings.ReplaceAll(out, s.symbol, s.word)
	}

	// Ellipses read as long awkward pauses.
	out = strings.ReplaceAll(out, "...", ". ")

	out = strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
	if out == "" {
		return out
	}

	if len(out) > n.charBudget {
		out = firstSentences(out, 2)
	}

	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}

// firstSentences keeps the leading max sentences, re-terminating the last one.
func firstSentences(text string, max int) string {
	parts := strings.Split(text, ". ")
	if len(parts) <= max {
		return text
	}
	return strings.TrimSuffix(strings.Join(parts[:max], ". "), ".") + "."
}
