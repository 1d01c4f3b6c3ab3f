// Package profile 构建并缓存用户兴趣画像。
package profile

import (
	"context"
	"time"

	"github.com/rushteam/feedkit/core"
)

// Builder 从行为日志整体重算用户画像。
//
// 算法（每次重建都从头算，从不增量修补向量）：
//  1. 按类型取最近的有界窗口：like/save 各 100 条、dislike 50 条；
//     没有任何 like/save 时用 view 兜底
//  2. decayedWeight = baseWeight(type) * decayRate^daysOld
//  3. interestVector = Σ(embedding_i * w_i) / Σ(w_i)，只累积正权重行为；
//     dislike 不进入向量（负权重会把平均向量方向拉反），只进入亲和度与负反馈
//  4. 来源/类目亲和度按签名权重累积；物品的每个类目都吃满全额权重，不摊分
//  5. 零正反馈时走冷启动：top 来源物品 embedding 的平均作为合成向量
//  6. 行为日志读取失败一律按"无画像"处理（fail open 到热门兜底），绝不向调用方抛错
type Builder struct {
	Interactions core.InteractionStore
	Corpus       core.ItemCorpus

	// Dimension 是候选索引的向量维度；更高维 embedding 截断适配，更低维跳过。
	Dimension int

	// DecayRate 按日衰减率，默认 0.95（约 5%/天）
	DecayRate float64

	// PositiveLimit / DislikeLimit / ViewLimit 是各窗口大小，零值取默认 100/50/100
	PositiveLimit int
	DislikeLimit  int
	ViewLimit     int

	// SinceDays 限定只看最近 N 天的行为，零值取默认 90
	SinceDays int

	// NegativeThreshold 亲和度低于该值的来源/类目进入负反馈集合，零值取默认 -1.0
	NegativeThreshold float64

	// ColdStartSources / ColdStartItems 是冷启动取样规模，零值取默认 3/20
	ColdStartSources int
	ColdStartItems   int

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) decayRate() float64 {
	if b.DecayRate > 0 && b.DecayRate < 1 {
		return b.DecayRate
	}
	return core.DefaultDecayRate
}

func (b *Builder) negativeThreshold() float64 {
	if b.NegativeThreshold < 0 {
		return b.NegativeThreshold
	}
	return -1.0
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Build 构建用户画像。返回 (nil, nil) 表示无法个性化（无历史/冷启动失败/上游故障），
// 调用方走非个性化热门路径。
func (b *Builder) Build(ctx context.Context, userID string) (*core.UserProfile, error) {
	if userID == "" || b.Interactions == nil || b.Corpus == nil {
		return nil, nil
	}

	sinceDays := orDefault(b.SinceDays, 90)

	positives, err := b.Interactions.FindRecent(ctx, userID,
		[]core.InteractionType{core.InteractionSave, core.InteractionLike},
		orDefault(b.PositiveLimit, 100), sinceDays)
	if err != nil {
		return nil, nil // fail open：上游故障按"无画像"处理
	}

	dislikes, err := b.Interactions.FindRecent(ctx, userID,
		[]core.InteractionType{core.InteractionDislike},
		orDefault(b.DislikeLimit, 50), sinceDays)
	if err != nil {
		dislikes = nil
	}

	// like/save 为空时用 view 兜底作为正反馈
	if len(positives) == 0 {
		views, verr := b.Interactions.FindRecent(ctx, userID,
			[]core.InteractionType{core.InteractionViewComplete, core.InteractionViewPartial},
			orDefault(b.ViewLimit, 100), sinceDays)
		if verr == nil {
			positives = views
		}
	}

	if len(positives) == 0 && len(dislikes) == 0 {
		return nil, nil
	}

	prof := core.NewUserProfile(userID)
	prof.ComputedAt = b.now()

	b.accumulate(ctx, prof, append(append([]core.Interaction{}, positives...), dislikes...))

	// 零正反馈向量 → 冷启动合成
	if len(prof.InterestVector) == 0 {
		b.coldStart(ctx, prof)
	}
	if len(prof.InterestVector) == 0 && len(prof.SourceAffinity) == 0 {
		return nil, nil
	}

	b.markNegatives(prof)
	return prof, nil
}

// accumulate 聚合行为窗口：向量（只吃正权重）+ 来源/类目亲和度（签名权重）。
func (b *Builder) accumulate(ctx context.Context, prof *core.UserProfile, ins []core.Interaction) {
	if len(ins) == 0 {
		return
	}

	ids := make([]string, 0, len(ins))
	for _, in := range ins {
		ids = append(ids, in.ItemID)
	}
	items, err := b.Corpus.FindByIDs(ctx, ids)
	if err != nil {
		return
	}
	byID := make(map[string]*core.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	now := b.now()
	rate := b.decayRate()

	vecSum := make([]float64, b.Dimension)
	var weightSum float64

	for _, in := range ins {
		it, ok := byID[in.ItemID]
		if !ok {
			continue // 行为引用的物品已不存在：静默跳过，不参与聚合
		}

		w := in.DecayedWeight(now, rate)
		if w == 0 {
			continue
		}

		// 亲和度吃签名权重；每个类目吃满全额，不摊分
		if it.Source != "" {
			prof.SourceAffinity[it.Source] += w
		}
		for _, cat := range it.Categories {
			prof.CategoryAffinity[cat] += w
		}

		// 向量只吃正权重
		if w <= 0 || len(it.Embedding) == 0 {
			continue
		}
		vec, aerr := core.AdaptEmbedding(it.Embedding, b.Dimension)
		if aerr != nil {
			continue // 维度不兼容：绝不混进同一次加权平均
		}
		for i := range vecSum {
			vecSum[i] += vec[i] * w
		}
		weightSum += w
	}

	if weightSum > 0 {
		vec := make([]float64, b.Dimension)
		for i := range vecSum {
			vec[i] = vecSum[i] / weightSum
		}
		prof.InterestVector = vec
	}
}

// coldStart 用 top 来源物品 embedding 的平均合成兴趣向量。
func (b *Builder) coldStart(ctx context.Context, prof *core.UserProfile) {
	topSources := prof.TopSources(orDefault(b.ColdStartSources, 3))
	if len(topSources) == 0 {
		return
	}
	wanted := make(map[string]bool, len(topSources))
	for _, s := range topSources {
		wanted[s] = true
	}

	maxItems := orDefault(b.ColdStartItems, 20)
	vecSum := make([]float64, b.Dimension)
	var count int

	_ = b.Corpus.ForEachWithEmbedding(ctx, func(it *core.Item) error {
		if !wanted[it.Source] {
			return nil
		}
		vec, aerr := core.AdaptEmbedding(it.Embedding, b.Dimension)
		if aerr != nil {
			return nil
		}
		for i := range vecSum {
			vecSum[i] += vec[i]
		}
		count++
		if count >= maxItems {
			return errColdStartDone
		}
		return nil
	})

	if count == 0 {
		return
	}
	vec := make([]float64, b.Dimension)
	for i := range vecSum {
		vec[i] = vecSum[i] / float64(count)
	}
	prof.InterestVector = vec
	prof.ColdStart = true
}

// errColdStartDone 用于提前终止语料遍历，不是真正的错误。
var errColdStartDone = core.NewDomainError(core.ModuleProfile, "DONE", "cold start sample complete")

// markNegatives 把亲和度跌破阈值的来源/类目标记为负反馈信号。
func (b *Builder) markNegatives(prof *core.UserProfile) {
	threshold := b.negativeThreshold()
	for s, w := range prof.SourceAffinity {
		if w <= threshold {
			prof.Negative.Sources[s] = true
		}
	}
	for c, w := range prof.CategoryAffinity {
		if w <= threshold {
			prof.Negative.Categories[c] = true
		}
	}
}
