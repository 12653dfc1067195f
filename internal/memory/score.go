package memory

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// decayWindow is the age at which the recency factor has dropped to 0.9:
// entries lose about 10% of their weight per 30 days.
const decayWindow = 30 * 24 * time.Hour

const decayBase = 0.9

// Tokenize lowercases s and splits it on non-alphanumeric runes,
// dropping tokens of one or two characters. Token-level matching avoids
// the substring over-matching problem where "go" matches "cargo".
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Score is keywordMatch * recency * (importance / 10). Each factor lies
// in [0, 1], so the product does too.
func Score(e Entry, queryTokens []string, now time.Time) float64 {
	return keywordMatch(e.Content, queryTokens) *
		recencyFactor(e.CreatedAt, now) *
		(float64(e.Importance) / float64(MaxImportance))
}

// keywordMatch is the fraction of query tokens present in the entry's
// content tokens.
func keywordMatch(content string, queryTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	contentTokens := make(map[string]bool)
	for _, t := range Tokenize(content) {
		contentTokens[t] = true
	}
	hits := 0
	for _, t := range queryTokens {
		if contentTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

// recencyFactor is 0.9 raised to the entry's age in 30-day units:
// exponential decay that starts at 1 for a brand-new entry, stays
// positive forever and never exceeds 1. Clock skew that makes an entry
// appear to be from the future is treated as age zero.
func recencyFactor(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	return math.Pow(decayBase, age.Hours()/decayWindow.Hours())
}
