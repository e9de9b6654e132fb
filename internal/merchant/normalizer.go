// Package merchant normalizes free-text payee strings and scores their
// similarity. It assists rule authoring by grouping payee variations under a
// canonical merchant name; the rule engine itself does not depend on it.
package merchant

import (
	"regexp"
	"strings"
)

// legalSuffixes are entity suffixes stripped from payee names during
// normalization. The list is fixed but easy to extend.
var legalSuffixes = []string{
	"pty ltd", "pty", "ltd", "llc", "inc", "gmbh", "sarl", "sa", "ag",
	"plc", "corp", "co",
}

// idFragmentPattern matches token-like transaction-id fragments: alphanumeric
// runs of six or more characters containing at least one digit. Pure words
// are kept, however long.
var (
	idFragmentPattern = regexp.MustCompile(`\b[a-z0-9]*[0-9][a-z0-9]*\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize lowercases the payee, strips legal-entity suffixes, drops
// transaction-id fragments and collapses whitespace.
func Normalize(payee string) string {
	normalized := strings.ToLower(strings.TrimSpace(payee))

	normalized = idFragmentPattern.ReplaceAllStringFunc(normalized, func(token string) string {
		if len(token) >= 6 {
			return ""
		}
		return token
	})

	for _, suffix := range legalSuffixes {
		for {
			trimmed := strings.TrimSuffix(strings.TrimSpace(normalized), " "+suffix)
			trimmed = strings.TrimSuffix(trimmed, ","+suffix)
			if trimmed == normalized {
				break
			}
			normalized = trimmed
		}
	}

	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// Similarity returns a normalized edit-distance ratio in [0,1]. It is
// symmetric in its arguments and returns 1 for identical strings.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	distance := levenshtein(a, b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1.0 - float64(distance)/float64(longest)
}

// levenshtein computes the edit distance with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = minInt(
				previous[j]+1,      // deletion
				current[j-1]+1,     // insertion
				previous[j-1]+cost, // substitution
			)
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
