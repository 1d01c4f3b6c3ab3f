package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/feedkit/core"
)

func newStore(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMemoryStoreGetSet(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("missing key error = %v, want ErrStoreNotFound", err)
	}

	if err := m.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get() = (%q, %v), want (v, nil)", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("deleted key error = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStoreBatchGet(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()
	_ = m.Set(ctx, "a", []byte("1"))
	_ = m.Set(ctx, "b", []byte("2"))

	got, err := m.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}
}

func TestZRangeOrdering(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()
	_ = m.ZAdd(ctx, "z", 1, "low")
	_ = m.ZAdd(ctx, "z", 3, "high")
	_ = m.ZAdd(ctx, "z", 2, "mid")
	_ = m.ZAdd(ctx, "z", 2, "also-mid") // tie, member order decides

	got, err := m.ZRange(ctx, "z", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"high", "also-mid", "mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("ZRange len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange[%d] = %s, want %s (full %v)", i, got[i], want[i], got)
		}
	}

	top, _ := m.ZRange(ctx, "z", 0, 1)
	if len(top) != 2 || top[0] != "high" {
		t.Errorf("ZRange(0,1) = %v", top)
	}
}

func TestZRangeByScoreDesc(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()
	for i, member := range []string{"a", "b", "c", "d"} {
		_ = m.ZAdd(ctx, "z", float64(i+1), member)
	}

	got, err := m.ZRangeByScoreDesc(ctx, "z", 2, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Errorf("ZRangeByScoreDesc(2,3) = %v, want [c b]", got)
	}

	limited, _ := m.ZRangeByScoreDesc(ctx, "z", 0, 10, 2)
	if len(limited) != 2 || limited[0] != "d" {
		t.Errorf("limited range = %v, want top 2 descending", limited)
	}
}

func TestZIncrByAndScore(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()

	_ = m.ZIncrBy(ctx, "heat", 1, "item")
	_ = m.ZIncrBy(ctx, "heat", 2.5, "item")

	score, err := m.ZScore(ctx, "heat", "item")
	if err != nil || score != 3.5 {
		t.Errorf("ZScore() = (%v, %v), want (3.5, nil)", score, err)
	}
	if _, err := m.ZScore(ctx, "heat", "ghost"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("missing member error = %v, want ErrStoreNotFound", err)
	}
}

func TestZCount(t *testing.T) {
	m := newStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_ = m.ZAdd(ctx, "z", float64(i), string(rune('a'+i)))
	}
	n, err := m.ZCount(ctx, "z", 2, 4)
	if err != nil || n != 3 {
		t.Errorf("ZCount(2,4) = (%d, %v), want (3, nil)", n, err)
	}
}
