package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Exclusion 按请求排除集剔除候选：游标累积的已投递 ID 绝不重复出现在输出中。
// 排除集随游标透传（无状态翻页），在 RecommendContext.Excluded 上展开。
type Exclusion struct{}

var _ Filter = (*Exclusion)(nil)

func (f *Exclusion) Name() string { return "filter.exclusion" }

func (f *Exclusion) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx.IsExcluded(item.ID), nil
}
