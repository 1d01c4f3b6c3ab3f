package core

import "github.com/rushteam/feedkit/pkg/utils"

// RecommendContext 承载用户/翻页/实时信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是本次请求解析出的用户画像；nil 表示匿名或画像构建失败（非个性化路径）。
	User *UserProfile

	// Page 是翻页深度计数（游标携带）。页码越深，时效权重越低、候选时间窗越宽。
	Page int

	// Excluded 是本次请求的曝光排除集（游标累积 + 本页已选）。
	Excluded map[string]bool

	// Labels 是请求级标签，可驱动 Pipeline 行为并记录降级决策（如 fallback 原因）。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（device_type、realtime_* 等）。
	Params map[string]any
}

// IsExcluded 检查物品 ID 是否在排除集中。
func (rctx *RecommendContext) IsExcluded(id string) bool {
	return rctx != nil && rctx.Excluded != nil && rctx.Excluded[id]
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
