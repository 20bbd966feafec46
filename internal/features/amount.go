// Package features turns negotiation chats into flat per-chat feature rows:
// identity fields, parsed ransom amounts, and per-label semantic hit flags
// over attacker-authored messages.
package features

import (
	"regexp"
	"strconv"
	"strings"
)

// First digit run, allowing comma grouping and decimal points inside it.
var amountRe = regexp.MustCompile(`(\d[\d,\.]*)`)

// Explicit "no amount" spellings seen in negotiation metadata.
var nullTokens = map[string]bool{
	"n/a":  true,
	"na":   true,
	"none": true,
	"null": true,
}

// ParseAmount extracts a numeric ransom amount from free text like
// "$ 900,000", "$160,000", "75000", or "N/A". Currency markers are stripped
// case-insensitively, the first digit run wins, and comma grouping is
// removed. Unparseable or null-like input is absent, never zero.
func ParseAmount(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	lower := strings.ToLower(s)
	if nullTokens[lower] {
		return nil
	}

	cleaned := strings.ReplaceAll(lower, "$", "")
	cleaned = strings.ReplaceAll(cleaned, "usd", "")

	m := amountRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil
	}

	val, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &val
}
