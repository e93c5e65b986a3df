package symptoms

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize turns a comma-separated symptom string into canonical tokens:
// trimmed, lowercased, spaces replaced with underscores. Input order and
// duplicates are preserved; blank input yields an empty slice.
//
// Only the ASCII comma separates tokens. NFKC is applied per piece after
// splitting, so compatibility commas (U+FF0C, U+FE50) stay inside a token.
func Normalize(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}

	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(norm.NFKC.String(strings.TrimSpace(piece)))
		if piece == "" {
			continue
		}
		out = append(out, strings.ToLower(strings.ReplaceAll(piece, " ", "_")))
	}
	return out
}

// Display converts a canonical token back into Title Case words.
func Display(token string) string {
	words := strings.ReplaceAll(token, "_", " ")
	return cases.Title(language.English).String(strings.TrimSpace(words))
}

// DisplayAll applies Display to each token.
func DisplayAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Display(t)
	}
	return out
}
