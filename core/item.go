package core

import (
	"time"

	"github.com/rushteam/feedkit/pkg/utils"
)

// Engagement 是物品的互动统计。计数由外部采集管道维护，引擎只读。
type Engagement struct {
	Views          int64   `json:"views"`
	Likes          int64   `json:"likes"`
	Dislikes       int64   `json:"dislikes"`
	Saves          int64   `json:"saves"`
	CompletionRate float64 `json:"completion_rate"` // 0-1，完播率/读完率
}

// Item 是分发链路中的统一承载结构：内容元信息、向量、互动统计、分数、标签。
// Features 存放各阶段产出的子分数（similarity / source_score / ...），用于解释；
// Score 是最终排序决策值；Labels 记录来源与策略（recall_source / slot 等）。
type Item struct {
	ID          string
	Score       float64
	Embedding   []float64 // 固定维度 D 的内容向量；可能为空（无向量物品不进索引）
	Source      string    // 内容来源标识
	Categories  []string  // 类目标签（有序）
	PublishedAt time.Time // 发布/抓取时间
	Stats       Engagement
	Features    map[string]float64
	Meta        map[string]any
	Labels      map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutFeature 写入子分数。
func (it *Item) PutFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// Feature 读取子分数，缺失返回 0。
func (it *Item) Feature(key string) float64 {
	if it.Features == nil {
		return 0
	}
	return it.Features[key]
}

// AgeDays 返回物品距 now 的天数（可为小数）。未设置发布时间时视为极旧。
func (it *Item) AgeDays(now time.Time) float64 {
	if it.PublishedAt.IsZero() {
		return 365
	}
	d := now.Sub(it.PublishedAt)
	if d < 0 {
		return 0
	}
	return d.Hours() / 24
}

// HasCategory 检查物品是否带有指定类目。
func (it *Item) HasCategory(cat string) bool {
	for _, c := range it.Categories {
		if c == cat {
			return true
		}
	}
	return false
}
