// Package search keeps an in-memory full-text index over problem
// statements. The corpus is small and rebuilt from the database on boot,
// so a mem-only bleve index is enough; nothing is persisted.
package search

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

type problemDoc struct {
	ChapterName string `json:"chapter_name"`
	Content     string `json:"content"`
}

// Hit is one search result, ranked by BM25 score.
type Hit struct {
	Problem store.ProblemSummary `json:"problem"`
	Score   float64              `json:"score"`
	Rank    int                  `json:"rank"`
}

// Index is a mem-only bleve index over problems keyed by problem id.
type Index struct {
	idx  bleve.Index
	mu   sync.RWMutex
	meta map[string]store.ProblemSummary
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("bleve: %w", err)
	}
	return &Index{idx: idx, meta: map[string]store.ProblemSummary{}}, nil
}

// Load replaces the index contents with every problem in the store.
func (ix *Index) Load(ctx context.Context, st *store.Store) (int, error) {
	problems, err := st.ListProblems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list problems: %w", err)
	}
	for _, p := range problems {
		if err := ix.Add(p); err != nil {
			return 0, err
		}
	}
	return len(problems), nil
}

// Add indexes one problem, overwriting any previous entry for its id.
func (ix *Index) Add(p store.ProblemSummary) error {
	id := strconv.FormatInt(p.ID, 10)
	doc := problemDoc{ChapterName: p.ChapterName, Content: p.Content}
	if err := ix.idx.Index(id, doc); err != nil {
		return fmt.Errorf("index problem %s: %w", id, err)
	}
	ix.mu.Lock()
	ix.meta[id] = p
	ix.mu.Unlock()
	return nil
}

// Search runs a query-string query and returns at most k ranked hits.
func (ix *Index) Search(q string, k int) ([]Hit, error) {
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := []Hit{}
	for i, hit := range res.Hits {
		p, ok := ix.meta[hit.ID]
		if !ok {
			continue
		}
		out = append(out, Hit{Problem: p, Score: hit.Score, Rank: i + 1})
	}
	return out, nil
}
