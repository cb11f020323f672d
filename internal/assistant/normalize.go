package assistant

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Utterance is one input prepared for matching.
type Utterance struct {
	// Raw is the trimmed input with its original casing. Numbers and
	// expressions are read from here.
	Raw string

	// Normalized is Raw case-folded.
	Normalized string

	// Folded is Normalized without combining marks ("día" -> "dia"). Keyword
	// rules match against it, which keeps them accent-insensitive and makes
	// RE2's ASCII word boundaries line up with Spanish words.
	Folded string
}

// Normalize trims and case-folds text. Normalizing an already normalized
// string returns it unchanged.
func Normalize(text string) Utterance {
	raw := strings.TrimSpace(text)
	normalized := cases.Fold().String(raw)
	return Utterance{
		Raw:        raw,
		Normalized: normalized,
		Folded:     stripMarks(normalized),
	}
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// titleName capitalizes a captured name the Spanish way ("josé" -> "José").
func titleName(name string) string {
	return cases.Title(language.Spanish).String(name)
}
