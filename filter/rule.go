package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/dsl"
)

// Rule 是表达式过滤器：命中 CEL 规则的候选被剔除。
// 用于运营侧临时策略（拉黑来源、压掉某类内容），不用改代码发版。
//
// 求值失败按保留处理（fail open）：规则写错不能把 feed 打空。
type Rule struct {
	rule *dsl.Rule
}

var _ Filter = (*Rule)(nil)

// NewRule 编译表达式构造过滤器。表达式返回 true 表示剔除该候选。
func NewRule(expr string) (*Rule, error) {
	r, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Rule{rule: r}, nil
}

func (f *Rule) Name() string { return "filter.rule" }

func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.rule == nil {
		return false, nil
	}
	hit, err := f.rule.Eval(item, rctx)
	if err != nil {
		return false, nil
	}
	return hit, nil
}
