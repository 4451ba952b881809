package search

import "github.com/lodeworks/lodestone/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryTokenization(tokens []string)
	AfterTokenLookup(token string, hits []core.TokenScore)
	ArchivedSkipped(id core.ID)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterQueryTokenization(_ []string)             {}
func (n *noopMonitor) AfterTokenLookup(_ string, _ []core.TokenScore) {}
func (n *noopMonitor) ArchivedSkipped(_ core.ID)                     {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                 {}
