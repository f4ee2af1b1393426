package search

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase word tokens. A token is a run of
// letters, digits or underscores; everything else separates tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// Stems tokenizes text and returns the Porter stem of every token as a set.
func Stems(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[Stem(t)] = struct{}{}
	}
	return set
}

// normalize lowercases text and collapses it to single-space separated
// tokens, so "HTTP-Request " and "http request" compare equal.
func normalize(text string) string {
	return strings.Join(Tokenize(text), " ")
}
