package index

import "github.com/lodeworks/lodestone/core"

// Indexer computes the weighted posting list of a knowledge item.
type Indexer struct {
	tokenizer *Tokenizer
}

// NewIndexer creates an indexer over the given tokenizer.
// A nil tokenizer gets the default.
func NewIndexer(tokenizer *Tokenizer) *Indexer {
	if tokenizer == nil {
		tokenizer = NewTokenizer()
	}
	return &Indexer{tokenizer: tokenizer}
}

// Compute tokenizes every zone of the item and returns its postings.
// Empty zones contribute nothing; an item with no indexable text gets an
// empty posting list and is simply unreachable by search.
func (ix *Indexer) Compute(item *core.KnowledgeItem) []core.Posting {
	zones := []struct {
		zone core.Zone
		text string
	}{
		{core.ZoneTitle, item.Title},
		{core.ZoneSummary, item.Summary},
		{core.ZoneContent, item.Content},
		{core.ZoneAuthor, item.Author},
	}

	var postings []core.Posting
	for _, z := range zones {
		if z.text == "" {
			continue
		}
		tokens := ix.tokenizer.Tokenize(z.text)
		if len(tokens) == 0 {
			continue
		}

		positions := make(map[string][]int, len(tokens))
		order := make([]string, 0, len(tokens))
		for pos, token := range tokens {
			if _, seen := positions[token]; !seen {
				order = append(order, token)
			}
			positions[token] = append(positions[token], pos)
		}
		for _, token := range order {
			postings = append(postings, core.Posting{
				Token:     token,
				Zone:      z.zone,
				Positions: positions[token],
			})
		}
	}
	return postings
}

// TokenizeQuery normalizes a search query with the same rules as indexing.
func (ix *Indexer) TokenizeQuery(query string) []string {
	return ix.tokenizer.Tokenize(query)
}
