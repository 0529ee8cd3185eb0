package retrieval

import (
	"regexp"
	"strings"
)

// tokenPattern matches word tokens after lowercasing: runs of letters,
// digits and underscores.
var tokenPattern = regexp.MustCompile(`\b[a-z0-9_]+\b`)

// stopWords is a fixed small list filtered out during lexical indexing.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenize lowercases the text, extracts word tokens and drops stop words
// and single-character tokens.
func tokenize(text string) []string {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 1 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
