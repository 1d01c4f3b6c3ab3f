// Package rank 实现混合打分：相似度、来源/类目亲和度、时效、互动热度
// 融合成单一排序分数，全程在应用层显式计算，可独立于存储引擎测试。
package rank

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/utils"
)

// 混合分数权重。子分数各自归一化到 [0,1] 后线性融合：
//
//	baseScore  = 0.5*similarity + 0.3*sourceScore + 0.2*categoryScore
//	finalScore = baseScore * recencyMultiplier
//
// 时效是乘性 boost（阶梯函数），不是 [0,1] 分量。
const (
	WeightSimilarity = 0.5
	WeightSource     = 0.3
	WeightCategory   = 0.2
)

// 互动分权重：归一化 view / like / 完播率 的加权和。
// 输入先截顶再归一化，避免头部物品的离群计数支配分数。
const (
	EngagementViewWeight       = 0.3
	EngagementLikeWeight       = 0.2
	EngagementCompletionWeight = 0.5

	ViewCap = 10000
	LikeCap = 1000
)

// Hybrid 是混合打分 Node。
//
// 两条路径：
//   - 个性化：画像向量可用 → similarity/affinity/recency 融合
//   - 非个性化（无画像/无向量）：finalScore = engagement * 页感知时效权重，
//     页码越深时效 boost 越平（第一页要新，翻到后面要量）
//
// 负反馈候选不在这里处理：它们在 filter 阶段已被硬排除。
type Hybrid struct {
	// Engagement 提供实时互动计数（可选，如 Feast 在线特征）；
	// 取不到时使用语料中的静态计数。
	Engagement core.EngagementSource

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

func (n *Hybrid) Name() string        { return "rank.hybrid" }
func (n *Hybrid) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Hybrid) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *Hybrid) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	n.refreshEngagement(ctx, items)

	now := n.now()
	personalized := rctx != nil && rctx.User != nil && len(rctx.User.InterestVector) > 0
	page := 0
	if rctx != nil {
		page = rctx.Page
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if personalized {
			n.scorePersonalized(it, rctx.User, now)
		} else {
			n.scoreFallback(it, page, now)
		}
	}

	SortDeterministic(items)
	return items, nil
}

// scorePersonalized 计算个性化混合分数，子分数写入 Features 便于解释。
func (n *Hybrid) scorePersonalized(it *core.Item, prof *core.UserProfile, now time.Time) {
	sim := it.Feature("similarity")
	if sim == 0 && len(it.Embedding) > 0 && len(prof.InterestVector) == len(it.Embedding) {
		// 候选来自非向量召回源（如热门注入）：现场补算相似度
		sim = clamp01(core.CosineSimilarity(prof.InterestVector, it.Embedding))
		it.PutFeature("similarity", sim)
	}

	sourceScore := 0.0
	if max := prof.MaxSourceAffinity(); max > 0 {
		if w := prof.SourceAffinity[it.Source]; w > 0 {
			sourceScore = w / max
		}
	}

	categoryScore := 0.0
	if max := prof.MaxCategoryAffinity(); max > 0 {
		var sum float64
		var cnt int
		for _, cat := range it.Categories {
			if w := prof.CategoryAffinity[cat]; w > 0 {
				sum += w / max
				cnt++
			}
		}
		if cnt > 0 {
			categoryScore = sum / float64(cnt)
		}
	}

	recency := RecencyMultiplier(it.AgeDays(now))

	base := WeightSimilarity*sim + WeightSource*sourceScore + WeightCategory*categoryScore
	it.PutFeature("source_score", sourceScore)
	it.PutFeature("category_score", categoryScore)
	it.PutFeature("recency_boost", recency)
	it.PutFeature("engagement", EngagementScore(it.Stats))
	it.Score = base * recency
	it.PutLabel("rank_path", utils.Label{Value: "personalized", Source: "rank"})
}

// scoreFallback 计算非个性化分数：互动热度 × 页感知时效权重。
func (n *Hybrid) scoreFallback(it *core.Item, page int, now time.Time) {
	eng := EngagementScore(it.Stats)
	recency := PageRecencyWeight(it.AgeDays(now), page)

	it.PutFeature("engagement", eng)
	it.PutFeature("recency_boost", recency)
	it.Score = eng * recency
	it.PutLabel("rank_path", utils.Label{Value: "fallback", Source: "rank"})
}

// refreshEngagement 用实时特征覆盖静态计数（best-effort，失败忽略）。
func (n *Hybrid) refreshEngagement(ctx context.Context, items []*core.Item) {
	if n.Engagement == nil {
		return
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	stats, err := n.Engagement.BatchGetEngagement(ctx, ids)
	if err != nil || len(stats) == 0 {
		return
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if s, ok := stats[it.ID]; ok {
			it.Stats = s
			it.PutLabel("engagement_source", utils.Label{Value: "realtime", Source: "rank"})
		}
	}
}

// RecencyMultiplier 是时效阶梯 boost：≤3 天 1.5×、≤7 天 1.3×、≤14 天 1.1×、更旧 1.0×。
func RecencyMultiplier(ageDays float64) float64 {
	switch {
	case ageDays <= 3:
		return 1.5
	case ageDays <= 7:
		return 1.3
	case ageDays <= 14:
		return 1.1
	default:
		return 1.0
	}
}

// PageRecencyWeight 是页感知的时效权重：boost 部分随页码深度线性衰减。
// 第 0 页吃满阶梯 boost，约第 5 页后时效不再加成（翻得越深越以量为先）。
func PageRecencyWeight(ageDays float64, page int) float64 {
	if page < 0 {
		page = 0
	}
	decay := 1.0 - 0.2*float64(page)
	if decay < 0 {
		decay = 0
	}
	return 1.0 + (RecencyMultiplier(ageDays)-1.0)*decay
}

// EngagementScore 计算归一化互动分：加权的 view/like/完播率。
// view/like 先截顶再线性归一化。
func EngagementScore(s core.Engagement) float64 {
	views := math.Min(float64(s.Views), ViewCap) / ViewCap
	likes := math.Min(float64(s.Likes), LikeCap) / LikeCap
	completion := clamp01(s.CompletionRate)
	return EngagementViewWeight*views + EngagementLikeWeight*likes + EngagementCompletionWeight*completion
}

// SortDeterministic 按排序决议排序：finalScore 降序，平分按发布时间新者在前，
// 再平按 ID 升序。完全确定性，测试可复现。
func SortDeterministic(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil || b == nil {
			return b == nil
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID < b.ID
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
