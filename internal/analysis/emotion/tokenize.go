package emotion

import (
	"regexp"
	"strings"
)

// tokenPattern matches maximal runs of two or more Unicode word characters,
// which is what the training vectorizer's default token pattern extracts.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lower-cases text and returns its tokens in order.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// NGrams returns the unigrams followed by every adjacent bigram joined with a
// single space.
func NGrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	grams := make([]string, 0, 2*len(tokens)-1)
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}
