package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/store"
)

func buildIndex(t *testing.T, dim int, items ...*core.Item) *MemoryIndex {
	t.Helper()
	corpus := store.NewMemoryCorpus()
	corpus.Put(items...)
	idx := NewMemoryIndex(dim)
	if err := idx.Rebuild(context.Background(), corpus); err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestSearchOrdering(t *testing.T) {
	idx := buildIndex(t, 2,
		&core.Item{ID: "exact", Embedding: []float64{1, 0}},
		&core.Item{ID: "close", Embedding: []float64{0.9, 0.1}},
		&core.Item{ID: "far", Embedding: []float64{0, 1}},
	)

	matches, err := idx.Search(context.Background(), []float64{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	if matches[0].ID != "exact" || matches[1].ID != "close" || matches[2].ID != "far" {
		t.Errorf("order = [%s %s %s]", matches[0].ID, matches[1].ID, matches[2].ID)
	}
	if matches[0].Score < matches[1].Score || matches[1].Score < matches[2].Score {
		t.Error("scores not descending")
	}
	// distance is 1 - similarity
	if d := matches[0].Distance; d < -1e-9 || d > 1e-9 {
		t.Errorf("exact match distance = %v, want 0", d)
	}
}

func TestSearchTieBreakByID(t *testing.T) {
	idx := buildIndex(t, 2,
		&core.Item{ID: "b", Embedding: []float64{1, 0}},
		&core.Item{ID: "a", Embedding: []float64{2, 0}}, // same direction, same cosine
	)
	matches, err := idx.Search(context.Background(), []float64{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].ID != "a" || matches[1].ID != "b" {
		t.Errorf("tie should break by ID ascending, got [%s %s]", matches[0].ID, matches[1].ID)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewMemoryIndex(2)
	_, err := idx.Search(context.Background(), []float64{1, 0}, 5)
	if !errors.Is(err, core.ErrIndexUnavailable) {
		t.Errorf("empty index error = %v, want ErrIndexUnavailable", err)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	idx := buildIndex(t, 2, &core.Item{ID: "a", Embedding: []float64{1, 0}})
	_, err := idx.Search(context.Background(), []float64{1, 0, 0}, 5)
	if !errors.Is(err, core.ErrNoCompatibleEmbedding) {
		t.Errorf("dim mismatch error = %v, want ErrNoCompatibleEmbedding", err)
	}
}

// Items whose embeddings cannot adapt to the index dimension are skipped,
// never fail the rebuild.
func TestRebuildSkipsIncompatibleEmbeddings(t *testing.T) {
	idx := buildIndex(t, 3,
		&core.Item{ID: "ok", Embedding: []float64{1, 0, 0}},
		&core.Item{ID: "wide", Embedding: []float64{1, 0, 0, 0, 0}}, // truncated, kept
		&core.Item{ID: "narrow", Embedding: []float64{1}},           // skipped
		&core.Item{ID: "empty"},                                     // skipped
	)
	if got := idx.Len(); got != 2 {
		t.Errorf("index size = %d, want 2 (ok + truncated wide)", got)
	}
}

func TestSearchTopK(t *testing.T) {
	items := make([]*core.Item, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, &core.Item{
			ID:        string(rune('a' + i)),
			Embedding: []float64{1, float64(i) * 0.05},
		})
	}
	idx := buildIndex(t, 2, items...)

	matches, err := idx.Search(context.Background(), []float64{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 5 {
		t.Errorf("topK 5 returned %d matches", len(matches))
	}
}
