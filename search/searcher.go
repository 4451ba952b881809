package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/index"
	"github.com/lodeworks/lodestone/storage"
)

// Searcher ranks knowledge items against free-text queries using the
// weighted token index.
type Searcher struct {
	itemRepository storage.ItemRepository
	indexer        *index.Indexer
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	itemRepository storage.ItemRepository,
	indexer *index.Indexer,
	opts ...Option,
) (*Searcher, error) {
	if itemRepository == nil {
		return nil, ErrItemRepositoryRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	s := &Searcher{
		itemRepository: itemRepository,
		indexer:        indexer,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds items matching the query.
// Returns up to maxHits results, ranked by accumulated weighted score.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, nil)
}

// SearchWithMonitor finds items matching the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by accumulated weighted score.
// Ties break on item recency, then ID for stable output.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	tokens := s.indexer.TokenizeQuery(query)
	monitor.AfterQueryTokenization(tokens)
	if len(tokens) == 0 {
		return []*core.SearchResult{}, nil
	}

	// Accumulate per-item scores across all query tokens. A token occurring
	// in several zones already carries its summed weighted score in the
	// index entry.
	scores := make(map[core.ID]float64)
	for _, token := range tokens {
		hits, err := s.itemRepository.LookupToken(ctx, token)
		if err != nil {
			s.logger.Error("error looking up token", "token", token, "err", err)
			return nil, err
		}
		monitor.AfterTokenLookup(token, hits)
		for _, hit := range hits {
			scores[hit.ItemId] += hit.Score
		}
	}

	if len(scores) == 0 {
		return []*core.SearchResult{}, nil
	}

	ids := make([]core.ID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	items, err := s.itemRepository.GetItems(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving items", "itemCount", len(ids), "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.Status == core.ItemStatusArchived {
			monitor.ArchivedSkipped(item.Id)
			continue
		}
		results = append(results, &core.SearchResult{
			Item:  item,
			Score: scores[item.Id],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Item.UpdatedAt.Equal(results[j].Item.UpdatedAt) {
			return results[i].Item.UpdatedAt.After(results[j].Item.UpdatedAt)
		}
		return results[i].Item.Id < results[j].Item.Id
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
