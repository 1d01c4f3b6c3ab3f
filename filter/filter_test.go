package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
)

func TestExclusionFilter(t *testing.T) {
	f := &Exclusion{}
	rctx := &core.RecommendContext{Excluded: map[string]bool{"seen": true}}

	tests := []struct {
		name string
		item *core.Item
		want bool
	}{
		{"excluded id", &core.Item{ID: "seen"}, true},
		{"fresh id", &core.Item{ID: "fresh"}, false},
		{"nil item", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNegativeSignalFilter(t *testing.T) {
	prof := core.NewUserProfile("u1")
	prof.Negative.Sources["spam"] = true
	prof.Negative.Categories["ads"] = true

	f := &NegativeSignal{}
	tests := []struct {
		name string
		rctx *core.RecommendContext
		item *core.Item
		want bool
	}{
		{
			"blocked source",
			&core.RecommendContext{User: prof},
			&core.Item{ID: "a", Source: "spam"},
			true,
		},
		{
			"blocked category",
			&core.RecommendContext{User: prof},
			&core.Item{ID: "b", Categories: []string{"tech", "ads"}},
			true,
		},
		{
			"clean item",
			&core.RecommendContext{User: prof},
			&core.Item{ID: "c", Source: "blog"},
			false,
		},
		{
			"anonymous request passes everything",
			&core.RecommendContext{},
			&core.Item{ID: "d", Source: "spam"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), tt.rctx, tt.item)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleFilter(t *testing.T) {
	f, err := NewRule(`item.source == "blocked" && item.score < 0.5`)
	if err != nil {
		t.Fatalf("NewRule() error = %v", err)
	}

	rctx := &core.RecommendContext{UserID: "u1"}
	hit, err := f.ShouldFilter(context.Background(), rctx, &core.Item{ID: "a", Source: "blocked", Score: 0.1})
	if err != nil || !hit {
		t.Errorf("matching item: (%v, %v), want (true, nil)", hit, err)
	}
	hit, err = f.ShouldFilter(context.Background(), rctx, &core.Item{ID: "b", Source: "blocked", Score: 0.9})
	if err != nil || hit {
		t.Errorf("non-matching item: (%v, %v), want (false, nil)", hit, err)
	}
}

func TestRuleFilterBadExpression(t *testing.T) {
	if _, err := NewRule("this is not CEL ++"); err == nil {
		t.Error("invalid expression should fail to compile")
	}
	if _, err := NewRule(""); err == nil {
		t.Error("empty expression should fail to compile")
	}
}

func TestNodeFailOpen(t *testing.T) {
	n := &Node{Filters: []Filter{brokenFilter{}, &Exclusion{}}}
	rctx := &core.RecommendContext{Excluded: map[string]bool{"b": true}}
	items := []*core.Item{{ID: "a"}, {ID: "b"}}

	out, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	// broken filter is ignored, exclusion still applies
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("Process() = %v, want [a]", ids(out))
	}
	if l, ok := items[1].Labels["filtered"]; !ok || l.Source != "filter.exclusion" {
		t.Errorf("filtered item should carry the filter name as label source, got %+v", items[1].Labels)
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSeenFilterKeys(t *testing.T) {
	f := &Seen{}
	key := f.Key("u1", day("2026-08-01"))
	want := "user:seen:bloom:u1:2026-08-01"
	if key != want {
		t.Errorf("Key() = %q, want %q", key, want)
	}
}

func TestSeenFilterWindow(t *testing.T) {
	checker := &recordingChecker{seen: map[string]bool{
		"user:seen:bloom:u1:2026-07-30": true, // two days back
	}}
	f := &Seen{
		Checker:   checker,
		DayWindow: 3,
		Now:       func() time.Time { return day("2026-08-01") },
	}
	rctx := &core.RecommendContext{UserID: "u1"}

	hit, err := f.ShouldFilter(context.Background(), rctx, &core.Item{ID: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("item seen two days back within a 3-day window should be filtered")
	}

	// outside the window
	f.DayWindow = 2
	hit, _ = f.ShouldFilter(context.Background(), rctx, &core.Item{ID: "x"})
	if hit {
		t.Error("item outside the day window should pass")
	}
}

func TestSeenFilterCheckErrorsIgnored(t *testing.T) {
	f := &Seen{Checker: failingChecker{}, DayWindow: 2}
	hit, err := f.ShouldFilter(context.Background(), &core.RecommendContext{UserID: "u1"}, &core.Item{ID: "x"})
	if err != nil || hit {
		t.Errorf("checker failures should count as not seen, got (%v, %v)", hit, err)
	}
}

type brokenFilter struct{}

func (brokenFilter) Name() string { return "filter.broken" }

func (brokenFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("filter backend down")
}

type recordingChecker struct {
	seen map[string]bool
}

func (c *recordingChecker) Test(_ context.Context, key, itemID string) (bool, error) {
	return c.seen[key], nil
}

type failingChecker struct{}

func (failingChecker) Test(context.Context, string, string) (bool, error) {
	return false, errors.New("redis down")
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
