package core

import (
	"math"
	"time"
)

// InteractionType 是用户行为类型。行为日志是 append-only 的，引擎只读取
// 每种类型最近的一个有界窗口。
type InteractionType string

const (
	InteractionViewPartial  InteractionType = "view_partial"
	InteractionViewComplete InteractionType = "view_complete"
	InteractionLike         InteractionType = "like"
	InteractionDislike      InteractionType = "dislike"
	InteractionSave         InteractionType = "save"
)

// Interaction 是一条用户行为记录：(userId, itemId, type, timestamp)。
type Interaction struct {
	UserID    string          `json:"user_id"`
	ItemID    string          `json:"item_id"`
	Type      InteractionType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
}

// DefaultDecayRate 是兴趣的按日衰减率：每天保留 95%。
const DefaultDecayRate = 0.95

// baseWeights 是各行为类型的签名基础权重。
// dislike 为负：只影响来源/类目亲和度与负反馈信号，不进入兴趣向量的加权平均
// （负权重会把向量方向拉反，见 profile.Builder）。
var baseWeights = map[InteractionType]float64{
	InteractionSave:         5.0,
	InteractionLike:         3.0,
	InteractionViewComplete: 2.0,
	InteractionViewPartial:  1.0,
	InteractionDislike:      -3.0,
}

// BaseWeight 返回行为类型的签名基础权重；未知类型为 0。
func BaseWeight(t InteractionType) float64 {
	return baseWeights[t]
}

// DecayedWeight 计算带时间衰减的权重：baseWeight * decayRate^daysOld。
// decayRate ∈ (0,1) 时严格单调：同类型行为越旧权重越小。
func (i Interaction) DecayedWeight(now time.Time, decayRate float64) float64 {
	base := BaseWeight(i.Type)
	if base == 0 {
		return 0
	}
	if decayRate <= 0 || decayRate >= 1 {
		decayRate = DefaultDecayRate
	}
	days := now.Sub(i.Timestamp).Hours() / 24
	if days < 0 {
		days = 0
	}
	return base * math.Pow(decayRate, days)
}

// PositiveInteractionTypes 返回进入兴趣向量的正反馈类型（按权重从高到低）。
func PositiveInteractionTypes() []InteractionType {
	return []InteractionType{
		InteractionSave,
		InteractionLike,
		InteractionViewComplete,
		InteractionViewPartial,
	}
}
