// Package language decides whether a transcript has to be translated before
// refinement. It detects scripts by Unicode range; it is not a language
// identifier.
package language

import (
	"strings"
	"unicode"

	"voice-complaint-go/internal/types"
)

// Router routes transcripts towards a single target language whose script
// is Latin.
type Router struct {
	target string
}

func NewRouter(target string) *Router {
	t := Normalize(target)
	if t == "" {
		t = "en"
	}
	return &Router{target: t}
}

func (r *Router) Target() string { return r.target }

// NeedsTranslation is false when the hint already names the target language.
// Otherwise any letter outside the Latin script, even inside mixed text,
// asks for translation.
func (r *Router) NeedsTranslation(t types.Transcript) bool {
	if Normalize(t.LanguageHint) == r.target {
		return false
	}
	return hasNonLatinLetter(t.Text)
}

// SourceLanguage picks the code to send as translation source. Empty lets
// the engine detect it.
func (r *Router) SourceLanguage(t types.Transcript) string {
	if hint := Normalize(t.LanguageHint); hint != "" && hint != r.target {
		return hint
	}
	for _, rn := range t.Text {
		if !unicode.IsLetter(rn) || unicode.Is(unicode.Latin, rn) {
			continue
		}
		for _, s := range scriptLanguages {
			if unicode.Is(s.table, rn) {
				return s.code
			}
		}
	}
	return ""
}

// DetectScript classifies text: any Devanagari letter wins, then any other
// non-Latin letter, else Latin-like.
func DetectScript(text string) types.Script {
	other := false
	for _, rn := range text {
		if !unicode.IsLetter(rn) && !unicode.Is(unicode.Mn, rn) {
			continue
		}
		if unicode.Is(unicode.Devanagari, rn) {
			return types.ScriptDevanagari
		}
		if unicode.IsLetter(rn) && !unicode.Is(unicode.Latin, rn) {
			other = true
		}
	}
	if other {
		return types.ScriptOther
	}
	return types.ScriptLatinLike
}

func hasNonLatinLetter(text string) bool {
	for _, rn := range text {
		if unicode.IsLetter(rn) && !unicode.Is(unicode.Latin, rn) {
			return true
		}
		// Devanagari vowel signs are marks, not letters.
		if unicode.Is(unicode.Devanagari, rn) {
			return true
		}
	}
	return false
}

var scriptLanguages = []struct {
	table *unicode.RangeTable
	code  string
}{
	{unicode.Devanagari, "hi"},
	{unicode.Oriya, "or"},
	{unicode.Bengali, "bn"},
	{unicode.Gujarati, "gu"},
	{unicode.Gurmukhi, "pa"},
	{unicode.Tamil, "ta"},
	{unicode.Telugu, "te"},
	{unicode.Kannada, "kn"},
	{unicode.Malayalam, "ml"},
}

var names = map[string]string{
	"english": "en",
	"hindi":   "hi",
	"odia":    "or",
	"oriya":   "or",
	"bengali": "bn",
	"marathi": "mr",
	"tamil":   "ta",
	"telugu":  "te",
}

// Normalize reduces a BCP-47 tag or an English language name to its
// lowercase primary subtag: "hi-IN" -> "hi", "English" -> "en".
func Normalize(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if v, ok := names[c]; ok {
		return v
	}
	if i := strings.IndexAny(c, "-_"); i >= 0 {
		c = c[:i]
	}
	return c
}
