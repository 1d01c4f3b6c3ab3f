package pipeline

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall  Kind = "recall"  // 召回阶段：生成候选集
	KindFilter  Kind = "filter"  // 过滤阶段：剔除排除集/负反馈/规则命中的候选
	KindRank    Kind = "rank"    // 排序阶段：混合打分并确定性排序
	KindCompose Kind = "compose" // 编排阶段：主序 + 多样性/热门插槽 + 截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态，方便 Recall 生成、Filter 截断、
// Compose 重组等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
