package analysis

import (
	"strings"
	"unicode"
)

// StandardName is the registry name of the default analyzer.
const StandardName = "standard"

// StandardAnalyzer splits text into maximal runs of letters and digits and
// lowercases them. It applies no stopword removal and no stemming, so token
// positions line up exactly with the ordinals of the words in the input.
type StandardAnalyzer struct{}

// Analyze implements Analyzer.
func (a *StandardAnalyzer) Analyze(text string) []Token {
	var tokens []Token
	var pos uint32
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Term: strings.ToLower(text[start:i]), Position: pos})
			pos++
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Term: strings.ToLower(text[start:]), Position: pos})
	}
	return tokens
}
