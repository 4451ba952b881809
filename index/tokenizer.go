package index

import "strings"

// Stop words filtered out of zones and queries alike
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Stemmer reduces a normalized token to its index form. The default is the
// identity stemmer; a real stemmer can be plugged in without touching the
// tokenizer.
type Stemmer interface {
	Stem(token string) string
}

type noopStemmer struct{}

func (noopStemmer) Stem(token string) string { return token }

// Tokenizer normalizes text into index tokens.
type Tokenizer struct {
	stemmer Stemmer
}

// NewTokenizer creates a tokenizer with the identity stemmer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{stemmer: noopStemmer{}}
}

// NewTokenizerWithStemmer creates a tokenizer using the given stemmer.
func NewTokenizerWithStemmer(stemmer Stemmer) *Tokenizer {
	if stemmer == nil {
		stemmer = noopStemmer{}
	}
	return &Tokenizer{stemmer: stemmer}
}

// Tokenize splits text into words, lowercases, trims punctuation, removes
// stop words and applies the stemmer. Token order follows text order.
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		tokens = append(tokens, t.stemmer.Stem(cleaned))
	}

	return tokens
}
