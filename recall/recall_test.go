package recall

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/store"
	"github.com/rushteam/feedkit/vector"
)

type staticSource struct {
	name  string
	items []string
	err   error
	delay time.Duration
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(s.items))
	for _, id := range s.items {
		out = append(out, core.NewItem(id))
	}
	return out, nil
}

func TestFanoutMergeAndDedup(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&staticSource{name: "recall.a", items: []string{"x", "y"}},
			&staticSource{name: "recall.b", items: []string{"y", "z"}},
		},
		Dedup: true,
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []string{"x", "y", "z"}
	if len(out) != len(want) {
		t.Fatalf("got %d items, want %d: %v", len(out), len(want), itemIDs(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, out[i].ID, id)
		}
	}

	// first-registered source wins on duplicates, later provenance is accumulated
	if l := out[1].Labels["recall_source"]; !strings.HasPrefix(l.Value, "recall.a") {
		t.Errorf("duplicate item provenance = %q, want recall.a first", l.Value)
	}
}

func TestFanoutDropsFailedSource(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&staticSource{name: "recall.broken", err: errors.New("backend down")},
			&staticSource{name: "recall.ok", items: []string{"a"}},
		},
		Dedup: true,
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("one failed source must not fail the fanout, got %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("surviving source output = %v, want [a]", itemIDs(out))
	}
}

func TestFanoutTimeout(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&staticSource{name: "recall.slow", items: []string{"slow"}, delay: 200 * time.Millisecond},
			&staticSource{name: "recall.fast", items: []string{"fast"}},
		},
		Timeout: 20 * time.Millisecond,
		Dedup:   true,
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "fast" {
		t.Errorf("slow source should be dropped on timeout, got %v", itemIDs(out))
	}
}

func TestPersonalizedRecall(t *testing.T) {
	corpus := store.NewMemoryCorpus()
	corpus.Put(
		&core.Item{ID: "near", Embedding: []float64{1, 0}},
		&core.Item{ID: "far", Embedding: []float64{0, 1}},
	)
	idx := vector.NewMemoryIndex(2)
	if err := idx.Rebuild(context.Background(), corpus); err != nil {
		t.Fatal(err)
	}

	prof := core.NewUserProfile("u1")
	prof.InterestVector = []float64{1, 0}
	r := &Personalized{Index: idx}

	out, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: prof})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "near" {
		t.Errorf("recall order = %v, want near first", itemIDs(out))
	}
	if sim := out[0].Feature("similarity"); sim < 0.999 {
		t.Errorf("similarity feature = %v, want ~1", sim)
	}
}

func TestPersonalizedRecallDegrades(t *testing.T) {
	r := &Personalized{Index: vector.NewMemoryIndex(2)}

	// no profile
	out, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil || out != nil {
		t.Errorf("missing profile should degrade to empty, got (%v, %v)", itemIDs(out), err)
	}

	// dimension mismatch
	prof := core.NewUserProfile("u1")
	prof.InterestVector = []float64{1, 0, 0}
	out, err = r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: prof})
	if err != nil || out != nil {
		t.Errorf("dim mismatch should degrade to empty, got (%v, %v)", itemIDs(out), err)
	}

	// empty index
	prof.InterestVector = []float64{1, 0}
	rctx := &core.RecommendContext{UserID: "u1", User: prof}
	out, err = r.Recall(context.Background(), rctx)
	if err != nil || out != nil {
		t.Errorf("empty index should degrade to empty, got (%v, %v)", itemIDs(out), err)
	}
	if l, ok := rctx.Labels["degraded"]; !ok || l.Value != "index_unavailable" {
		t.Errorf("degradation should be labeled on the request context, got %+v", rctx.Labels)
	}
}

func TestTrendingFromLeaderboard(t *testing.T) {
	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	ctx := context.Background()
	_ = kv.ZAdd(ctx, "trending:items:3d", 10, "hot")
	_ = kv.ZAdd(ctx, "trending:items:3d", 5, "warm")

	r := &Trending{Store: kv}
	out, err := r.Recall(ctx, &core.RecommendContext{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "hot" || out[1].ID != "warm" {
		t.Errorf("leaderboard recall = %v, want [hot warm]", itemIDs(out))
	}
}

func TestTrendingCorpusFallback(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	corpus := store.NewMemoryCorpus()
	corpus.Put(
		&core.Item{ID: "hot", Embedding: []float64{1, 0}, PublishedAt: now.AddDate(0, 0, -1),
			Stats: core.Engagement{Saves: 100, Likes: 50, Views: 1000}},
		&core.Item{ID: "cold", Embedding: []float64{1, 0}, PublishedAt: now.AddDate(0, 0, -2),
			Stats: core.Engagement{Views: 10}},
		&core.Item{ID: "stale", Embedding: []float64{1, 0}, PublishedAt: now.AddDate(0, 0, -60),
			Stats: core.Engagement{Saves: 999}},
	)

	r := &Trending{Corpus: corpus, Now: func() time.Time { return now }}
	out, err := r.RecallWindow(context.Background(), &core.RecommendContext{}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "hot" {
		t.Errorf("fallback recall = %v, want [hot cold]", itemIDs(out))
	}
	for _, it := range out {
		if it.ID == "stale" {
			t.Error("items outside the window must not be recalled")
		}
	}
}

// Recalled items are copies, request-scoped mutation must not leak into the corpus.
func TestTrendingCopiesItems(t *testing.T) {
	now := time.Now()
	shared := &core.Item{ID: "a", Embedding: []float64{1, 0}, PublishedAt: now}
	corpus := store.NewMemoryCorpus()
	corpus.Put(shared)

	r := &Trending{Corpus: corpus}
	out, err := r.Recall(context.Background(), &core.RecommendContext{})
	if err != nil || len(out) != 1 {
		t.Fatalf("recall = (%v, %v)", itemIDs(out), err)
	}
	out[0].Score = 99
	out[0].PutFeature("similarity", 0.5)
	if shared.Score != 0 || len(shared.Features) != 0 {
		t.Errorf("request-scoped mutation leaked into the corpus item: %+v", shared)
	}
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
