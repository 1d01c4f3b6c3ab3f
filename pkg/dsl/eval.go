// Package dsl 是候选规则的表达式层，基于 CEL (Common Expression Language) 实现。
//
// 用途：运营/策略侧用表达式描述候选约束（例如临时拉黑某来源、压掉低分物品），
// 不用改代码发版。表达式编译一次、逐候选求值。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：item.source == "blocked-source" / item.score > 0.7
//   - 标签：label.recall_source == "recall.trending"
//   - 逻辑：item.source == "A" && item.score < 0.1
//   - 包含："sports" in item.categories
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/feedkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("user", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译好的候选规则。编译一次后可被多个 goroutine 并发求值。
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译 CEL 表达式为规则。表达式必须返回布尔值。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env init: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回规则的原始表达式（用于日志/观测）。
func (r *Rule) Expr() string { return r.expr }

// Eval 对单个候选求值。求值失败（如访问不存在的 key）返回 error，
// 由调用方决定 fail-open 还是 fail-closed。
func (r *Rule) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", r.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return boolean, got %T", r.expr, out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	itemMap := map[string]any{}
	labelMap := map[string]any{}
	userMap := map[string]any{}

	if item != nil {
		cats := make([]any, 0, len(item.Categories))
		for _, c := range item.Categories {
			cats = append(cats, c)
		}
		itemMap["id"] = item.ID
		itemMap["score"] = item.Score
		itemMap["source"] = item.Source
		itemMap["categories"] = cats
		itemMap["views"] = item.Stats.Views
		itemMap["likes"] = item.Stats.Likes
		for k, v := range item.Features {
			itemMap[k] = v
		}
		for k, lbl := range item.Labels {
			labelMap[k] = lbl.Value
		}
	}
	if rctx != nil {
		userMap["id"] = rctx.UserID
		userMap["page"] = rctx.Page
		for k, v := range rctx.Params {
			userMap[k] = v
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labelMap,
		"user":  userMap,
	}
}
