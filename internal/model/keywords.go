package model

import (
	"regexp"
	"strings"
)

// Category is a claim line inferred from loss-narrative vocabulary
type Category string

const (
	CategoryAuto     Category = "Auto"
	CategoryProperty Category = "Property"
	CategoryHealth   Category = "Health"
)

// CategoryKeywords pairs a category with the narrative words that indicate it.
type CategoryKeywords struct {
	Category Category
	Keywords []string
	// ClaimTokens are the substrings a stated claim_type must contain to agree
	// with this category.
	ClaimTokens []string
}

// ClaimVocabulary is the single category table shared by extraction (claim type
// inference) and validation (claim type / description contradiction). Order is
// the inference priority.
var ClaimVocabulary = []CategoryKeywords{
	{
		Category:    CategoryAuto,
		Keywords:    []string{"collision", "rear", "front", "vehicle", "car", "truck", "automobile"},
		ClaimTokens: []string{"auto"},
	},
	{
		Category:    CategoryProperty,
		Keywords:    []string{"water", "flood", "leak", "roof", "fire", "burglary", "theft"},
		ClaimTokens: []string{"property"},
	},
	{
		Category:    CategoryHealth,
		Keywords:    []string{"injury", "hurt", "hospital", "medical"},
		ClaimTokens: []string{"health", "injury"},
	},
}

// Mentions reports whether the lowercased text contains any of the category's
// keywords. Matching is by substring, so "car" also hits "scar".
func (c CategoryKeywords) Mentions(lower string) bool {
	for _, k := range c.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// AgreesWith reports whether a lowercased claim type names this category.
func (c CategoryKeywords) AgreesWith(lowerClaimType string) bool {
	for _, tok := range c.ClaimTokens {
		if strings.Contains(lowerClaimType, tok) {
			return true
		}
	}
	return false
}

// SuspiciousTerms is the fraud-signal vocabulary, matched as whole words.
var SuspiciousTerms = []string{"staged", "fraud", "inconsistent", "contradictory", "false"}

var suspiciousPattern = regexp.MustCompile(`\b(` + strings.Join(SuspiciousTerms, "|") + `)\b`)

// FindSuspiciousTerms returns the distinct suspicious words in text, in order of
// first appearance. Matching is case-insensitive.
func FindSuspiciousTerms(text string) []string {
	matches := suspiciousPattern.FindAllString(strings.ToLower(text), -1)
	var found []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			found = append(found, m)
		}
	}
	return found
}
