package recall

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/feedkit/core"
)

// Trending 是热门召回源：按互动热度取 TopN。
//
// 数据来源两级：
//  1. KeyValueStore 有序集合（离线任务按时间窗维护的热度榜），
//     key 形如 {prefix}:{window}d，ZRange 直接取 TopN
//  2. 榜单缺失/出错时扫语料兜底：时间窗内物品按互动热度排序
//
// 时间窗可逐级放宽（72h → 7d → 14d → 30d）：候选不够时牺牲时效换量，
// 由 feed 服务驱动（见 RecallWindow）。
type Trending struct {
	Store     core.KeyValueStore
	KeyPrefix string // 默认 "trending:items"
	Corpus    core.ItemCorpus
	TopK      int // 默认 100

	// WindowDays 是默认时间窗（天），零值取 3
	WindowDays int

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

var _ Source = (*Trending)(nil)

func (r *Trending) Name() string { return "recall.trending" }

func (r *Trending) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Trending) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	window := r.WindowDays
	if window <= 0 {
		window = 3
	}
	return r.RecallWindow(ctx, rctx, window)
}

// RecallWindow 在指定时间窗（天）内召回热门物品。
func (r *Trending) RecallWindow(
	ctx context.Context,
	_ *core.RecommendContext,
	windowDays int,
) ([]*core.Item, error) {
	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	// 1. 热度榜
	if r.Store != nil {
		prefix := r.KeyPrefix
		if prefix == "" {
			prefix = "trending:items"
		}
		key := fmt.Sprintf("%s:%dd", prefix, windowDays)
		members, err := r.Store.ZRange(ctx, key, 0, int64(topK-1))
		if err == nil && len(members) > 0 {
			out := make([]*core.Item, 0, len(members))
			for _, id := range members {
				out = append(out, core.NewItem(id))
			}
			return out, nil
		}
		// 榜单缺失/出错：继续走语料兜底
	}

	// 2. 语料兜底
	if r.Corpus == nil {
		return nil, nil
	}

	cutoff := r.now().AddDate(0, 0, -windowDays)
	var pool []*core.Item
	err := r.Corpus.ForEachWithEmbedding(ctx, func(it *core.Item) error {
		if it.PublishedAt.Before(cutoff) {
			return nil
		}
		pool = append(pool, it)
		return nil
	})
	if err != nil {
		return nil, nil
	}

	sort.Slice(pool, func(i, j int) bool {
		hi, hj := heat(pool[i]), heat(pool[j])
		if hi != hj {
			return hi > hj
		}
		return pool[i].ID < pool[j].ID
	})
	if len(pool) > topK {
		pool = pool[:topK]
	}

	// 语料物品是共享引用，复制一份承载请求级分数/标签
	out := make([]*core.Item, 0, len(pool))
	for _, it := range pool {
		cp := *it
		cp.Features = make(map[string]float64)
		cp.Labels = nil
		out = append(out, &cp)
	}
	return out, nil
}

// heat 是榜单缺失时的简易热度：save 与 like 权重高于 view。
func heat(it *core.Item) float64 {
	return float64(it.Stats.Saves)*5 + float64(it.Stats.Likes)*3 + float64(it.Stats.Views)*0.1
}
