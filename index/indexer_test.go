package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lodestone/core"
)

func TestTokenizeNormalizes(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("The Cache, was INVALIDATED!")
	assert.Equal(t, []string{"cache", "invalidated"}, tokens)
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer()

	assert.Empty(t, tok.Tokenize(""))
	assert.Empty(t, tok.Tokenize("the a an"))
	assert.Empty(t, tok.Tokenize("... !!! ,,,"))
}

type suffixStemmer struct{}

func (suffixStemmer) Stem(token string) string {
	if len(token) > 3 && token[len(token)-1] == 's' {
		return token[:len(token)-1]
	}
	return token
}

func TestTokenizeWithStemmer(t *testing.T) {
	tok := NewTokenizerWithStemmer(suffixStemmer{})

	tokens := tok.Tokenize("caches queries")
	assert.Equal(t, []string{"cache", "querie"}, tokens)
}

func TestComputePostings(t *testing.T) {
	ix := NewIndexer(nil)

	item := &core.KnowledgeItem{
		Title:   "cache eviction cache",
		Content: "eviction under load",
		Author:  "jsmith",
	}
	postings := ix.Compute(item)

	byKey := make(map[string]core.Posting)
	for _, p := range postings {
		byKey[p.Token+"/"+p.Zone.String()] = p
	}

	title, ok := byKey["cache/"+core.ZoneTitle.String()]
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, title.Positions)

	_, ok = byKey["eviction/"+core.ZoneTitle.String()]
	assert.True(t, ok)
	_, ok = byKey["eviction/"+core.ZoneContent.String()]
	assert.True(t, ok)
	_, ok = byKey["jsmith/"+core.ZoneAuthor.String()]
	assert.True(t, ok)
}

func TestComputeEmptyItem(t *testing.T) {
	ix := NewIndexer(nil)

	postings := ix.Compute(&core.KnowledgeItem{})
	assert.Empty(t, postings)
}

func TestComputeScoresFavorTitle(t *testing.T) {
	ix := NewIndexer(nil)

	inTitle := ix.Compute(&core.KnowledgeItem{Title: "migration"})
	inContent := ix.Compute(&core.KnowledgeItem{Content: "migration"})

	titleScores := core.TokenScores(inTitle)
	contentScores := core.TokenScores(inContent)
	assert.Greater(t, titleScores["migration"], contentScores["migration"])
}
