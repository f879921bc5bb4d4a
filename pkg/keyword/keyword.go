package keyword

import "strings"

// Match returns the keywords contained in text, case-insensitive,
// preserving the input keyword order. An empty result means no match.
func Match(text string, keywords []string) []string {
	if text == "" || len(keywords) == 0 {
		return nil
	}

	lower := strings.ToLower(text)

	var hits []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}

	return hits
}

// Matched reports whether text contains at least one of the keywords.
func Matched(text string, keywords []string) bool {
	return len(Match(text, keywords)) > 0
}
