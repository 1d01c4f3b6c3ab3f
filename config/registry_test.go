package config

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/store"
	"github.com/rushteam/feedkit/vector"
)

var feedYAML = []byte(`
pipeline:
  name: personalized_feed
  nodes:
    - type: recall.fanout
      config:
        sources: [personalized, trending]
    - type: feed.hydrate
    - type: filter
      config:
        filters: [exclusion, negative, rule]
        rule_expr: 'item.source == "blocked"'
    - type: rank.hybrid
`)

func testDeps(t *testing.T) Deps {
	t.Helper()
	now := time.Now()
	corpus := store.NewMemoryCorpus()
	corpus.Put(
		&core.Item{ID: "good", Embedding: []float64{1, 0}, Source: "blog", PublishedAt: now},
		&core.Item{ID: "bad", Embedding: []float64{0.9, 0.1}, Source: "blocked", PublishedAt: now},
	)
	idx := vector.NewMemoryIndex(2)
	if err := idx.Rebuild(context.Background(), corpus); err != nil {
		t.Fatal(err)
	}
	return Deps{Index: idx, Corpus: corpus}
}

func TestDefaultFactoryBuildsConfiguredPipeline(t *testing.T) {
	cfg, err := pipeline.ParseYAML(feedYAML)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	p, err := cfg.BuildPipeline(DefaultFactory(testDeps(t)))
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}

	prof := core.NewUserProfile("u1")
	prof.InterestVector = []float64{1, 0}
	rctx := &core.RecommendContext{UserID: "u1", User: prof}

	items, err := p.Run(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "good" {
		got := make([]string, len(items))
		for i, it := range items {
			got[i] = it.ID
		}
		t.Errorf("pipeline output = %v, want [good] (rule filters the blocked source)", got)
	}
	if items[0].Score <= 0 {
		t.Errorf("ranked score = %v, want positive", items[0].Score)
	}
}

func TestDefaultFactoryRejectsBadConfig(t *testing.T) {
	deps := testDeps(t)
	factory := DefaultFactory(deps)

	if _, err := factory.Build("filter", map[string]any{
		"filters": []any{"no-such-filter"},
	}); err == nil {
		t.Error("unknown filter name should fail the build")
	}
	if _, err := factory.Build("recall.fanout", map[string]any{
		"sources": []any{"no-such-source"},
	}); err == nil {
		t.Error("unknown recall source should fail the build")
	}
	if _, err := factory.Build("filter", map[string]any{
		"filters": []any{"rule"},
	}); err == nil {
		t.Error("rule filter without an expression should fail the build")
	}
	if _, err := factory.Build("no.such.node", nil); err == nil {
		t.Error("unregistered node type should fail the build")
	}
}

func TestSupportedTypes(t *testing.T) {
	factory := DefaultFactory(Deps{})
	for _, typ := range SupportedTypes() {
		if _, err := factory.Build(typ, nil); err != nil {
			t.Errorf("supported type %q failed with empty config: %v", typ, err)
		}
	}
}
