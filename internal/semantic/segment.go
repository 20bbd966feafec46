package semantic

import "strings"

// SplitSentences breaks raw message text into trimmed sentence fragments.
// Newlines count as spaces. A '.', '!', or '?' followed by whitespace ends a
// fragment; the terminator and the whitespace run after it are consumed. A
// terminator with no whitespace after it (decimals, trailing punctuation)
// does not split. Fragments are trimmed of surrounding whitespace and '>'
// quote markers, and empty fragments are dropped.
//
// The rule is intentionally rough. Abbreviations split early, and the
// downstream feature definitions depend on it staying that way.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}
	flat := strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var b strings.Builder
	flush := func() {
		s := strings.Trim(b.String(), " >\t\r\n")
		if s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	runes := []rune(flat)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isTerminator(r) && i+1 < len(runes) && isSpace(runes[i+1]) {
			for i+1 < len(runes) && isSpace(runes[i+1]) {
				i++
			}
			flush()
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
