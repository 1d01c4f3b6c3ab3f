package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// NegativeSignal 按画像负反馈剔除候选：来源或任一类目命中负反馈集合的物品
// 在打分之前被硬排除，而不是降权。匿名请求（无画像）不过滤。
type NegativeSignal struct{}

var _ Filter = (*NegativeSignal)(nil)

func (f *NegativeSignal) Name() string { return "filter.negative" }

func (f *NegativeSignal) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.User == nil {
		return false, nil
	}
	return rctx.User.IsNegative(item), nil
}
