package core

import (
	"sort"
	"time"
)

// NegativeSignals 是显式负反馈信号：被 dislike 压到负亲和度的来源与类目。
// 命中负反馈的候选在打分之前被硬排除，而不是降权。
type NegativeSignals struct {
	Sources    map[string]bool `json:"sources,omitempty"`
	Categories map[string]bool `json:"categories,omitempty"`
}

// UserProfile 是用户兴趣画像。
//
// 它不是某一个 Node，而是被整个分发 Pipeline 共享的决策信号：
//
//	维度              作用
//	InterestVector    ANN 召回 query + similarity 子分数
//	SourceAffinity    来源亲和度子分数
//	CategoryAffinity  类目亲和度子分数
//	Negative          打分前的硬排除
//
// InterestVector 由 profile.Builder 独占：每次重建都从行为日志整体重算，
// 从不增量修补。dislike 只进入亲和度与负反馈，不进入向量的加权平均。
type UserProfile struct {
	UserID string `json:"user_id"`

	// InterestVector 是固定维度 D 的兴趣向量（正反馈 embedding 的加权时间衰减平均）。
	// 维度必须与候选索引一致，否则调用方回退到非个性化路径。
	InterestVector []float64 `json:"interest_vector,omitempty"`

	// SourceAffinity / CategoryAffinity 是带衰减的签名亲和度累积。
	// 可能为负（dislike 贡献），为负即表示负反馈信号。
	SourceAffinity   map[string]float64 `json:"source_affinity,omitempty"`
	CategoryAffinity map[string]float64 `json:"category_affinity,omitempty"`

	Negative NegativeSignals `json:"negative,omitempty"`

	// ColdStart 表示向量来自冷启动合成（top 来源物品平均），而非真实正反馈。
	ColdStart bool `json:"cold_start,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}

func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:           userID,
		SourceAffinity:   make(map[string]float64),
		CategoryAffinity: make(map[string]float64),
		Negative: NegativeSignals{
			Sources:    make(map[string]bool),
			Categories: make(map[string]bool),
		},
	}
}

// HasVector 检查画像是否携带指定维度的兴趣向量。
func (p *UserProfile) HasVector(dim int) bool {
	return p != nil && len(p.InterestVector) == dim
}

// MaxSourceAffinity 返回来源亲和度的最大正值，用于归一化；无正值返回 0。
func (p *UserProfile) MaxSourceAffinity() float64 {
	var max float64
	for _, w := range p.SourceAffinity {
		if w > max {
			max = w
		}
	}
	return max
}

// MaxCategoryAffinity 返回类目亲和度的最大正值，用于归一化；无正值返回 0。
func (p *UserProfile) MaxCategoryAffinity() float64 {
	var max float64
	for _, w := range p.CategoryAffinity {
		if w > max {
			max = w
		}
	}
	return max
}

// IsNegative 检查物品是否命中负反馈信号（来源在黑集合，或任一类目在黑集合）。
func (p *UserProfile) IsNegative(it *Item) bool {
	if p == nil || it == nil {
		return false
	}
	if p.Negative.Sources[it.Source] {
		return true
	}
	for _, c := range it.Categories {
		if p.Negative.Categories[c] {
			return true
		}
	}
	return false
}

// TopSources 返回正亲和度最高的 n 个来源（降序，分数相同按名称升序保证确定性）。
func (p *UserProfile) TopSources(n int) []string {
	type sw struct {
		source string
		weight float64
	}
	var all []sw
	for s, w := range p.SourceAffinity {
		if w > 0 {
			all = append(all, sw{s, w})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].weight != all[j].weight {
			return all[i].weight > all[j].weight
		}
		return all[i].source < all[j].source
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.source
	}
	return out
}
