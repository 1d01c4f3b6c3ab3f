package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/store"
)

func TestTTLForActivity(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, LongTTLSeconds},
		{2, LongTTLSeconds},
		{3, MediumTTLSeconds},
		{9, MediumTTLSeconds},
		{10, ShortTTLSeconds},
		{100, ShortTTLSeconds},
	}
	for _, tt := range tests {
		if got := TTLForActivity(tt.count); got != tt.want {
			t.Errorf("TTLForActivity(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

// countingInteractions wraps a real log and counts FindRecent calls,
// so tests can observe whether the cache rebuilt.
type countingInteractions struct {
	inner core.InteractionStore

	mu    sync.Mutex
	calls int
}

func (c *countingInteractions) FindRecent(ctx context.Context, userID string, types []core.InteractionType, limit, sinceDays int) ([]core.Interaction, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.FindRecent(ctx, userID, types, limit, sinceDays)
}

func (c *countingInteractions) CountSince(ctx context.Context, userID string, sinceDays int) (int, error) {
	return c.inner.CountSince(ctx, userID, sinceDays)
}

func (c *countingInteractions) fetchCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newCacheFixture(t *testing.T) (*Cache, *countingInteractions, *store.InteractionLog) {
	t.Helper()
	corpus := store.NewMemoryCorpus()
	corpus.Put(&core.Item{ID: "a", Embedding: []float64{1, 0}, Source: "blog"})

	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	log := store.NewInteractionLog(kv)
	counting := &countingInteractions{inner: log}

	builder := &Builder{
		Interactions: counting,
		Corpus:       corpus,
		Dimension:    2,
		Now:          testClock,
	}
	return NewCache(kv, builder, counting), counting, log
}

func TestCacheGetBuildsOnceThenHits(t *testing.T) {
	cache, counting, log := newCacheFixture(t)
	ctx := context.Background()
	logInteraction(t, log, "u1", "a", core.InteractionSave, testNow.Add(-time.Hour))

	first, err := cache.Get(ctx, "u1")
	if err != nil || first == nil {
		t.Fatalf("first Get() = (%v, %v)", first, err)
	}
	callsAfterBuild := counting.fetchCalls()

	second, err := cache.Get(ctx, "u1")
	if err != nil || second == nil {
		t.Fatalf("second Get() = (%v, %v)", second, err)
	}
	if counting.fetchCalls() != callsAfterBuild {
		t.Error("second Get should hit the cache, not rebuild")
	}
	if second.UserID != "u1" || !second.HasVector(2) {
		t.Errorf("cached profile lost fields: %+v", second)
	}
}

func TestCacheInvalidateForcesRebuild(t *testing.T) {
	cache, counting, log := newCacheFixture(t)
	ctx := context.Background()
	logInteraction(t, log, "u1", "a", core.InteractionSave, testNow.Add(-time.Hour))

	if _, err := cache.Get(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	before := counting.fetchCalls()

	cache.Invalidate(ctx, "u1")

	if _, err := cache.Get(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if counting.fetchCalls() <= before {
		t.Error("Get after Invalidate should rebuild the profile")
	}
}

// An unreliable cache store degrades to building every time, never to an error.
func TestCacheUnreliableStore(t *testing.T) {
	corpus := store.NewMemoryCorpus()
	corpus.Put(&core.Item{ID: "a", Embedding: []float64{1, 0}, Source: "blog"})

	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	log := store.NewInteractionLog(kv)
	logInteraction(t, log, "u1", "a", core.InteractionSave, testNow.Add(-time.Hour))

	builder := &Builder{Interactions: log, Corpus: corpus, Dimension: 2, Now: testClock}
	cache := NewCache(brokenStore{}, builder, log)

	prof, err := cache.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("broken cache store must not surface errors, got %v", err)
	}
	if prof == nil || !prof.HasVector(2) {
		t.Errorf("profile should still be built around the broken store, got %+v", prof)
	}
}

func TestCacheAnonymous(t *testing.T) {
	cache, _, _ := newCacheFixture(t)
	prof, err := cache.Get(context.Background(), "")
	if err != nil || prof != nil {
		t.Errorf("anonymous Get() = (%v, %v), want (nil, nil)", prof, err)
	}
}

type brokenStore struct{}

func (brokenStore) Name() string { return "broken" }

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("store down")
}

func (brokenStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("store down")
}

func (brokenStore) Delete(context.Context, string) error { return errors.New("store down") }

func (brokenStore) BatchGet(context.Context, []string) (map[string][]byte, error) {
	return nil, errors.New("store down")
}

func (brokenStore) Close() error { return nil }
