package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Source 是召回源的抽象：给定请求上下文，产出一批候选物品。
// 召回源只负责"找得到"，相关性排序交给 rank 阶段。
type Source interface {
	// Name 返回召回源名称（用于 provenance label 与观测）
	Name() string

	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
