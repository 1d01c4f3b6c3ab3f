package feast

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/conv"
)

// 互动计数在 Feast 中的特征名。特征视图由离线任务注册并持续物化。
const (
	FeatureViews      = "item_engagement:views"
	FeatureLikes      = "item_engagement:likes"
	FeatureDislikes   = "item_engagement:dislikes"
	FeatureSaves      = "item_engagement:saves"
	FeatureCompletion = "item_engagement:completion_rate"
)

// EntityKey 是物品实体在 Feast 中的实体键名。
const EntityKey = "item_id"

// EngagementSource 把 Feast 在线特征适配成打分层的互动计数来源。
type EngagementSource struct {
	Client Client

	// Project 覆盖客户端默认项目（可选）
	Project string
}

var _ core.EngagementSource = (*EngagementSource)(nil)

// BatchGetEngagement 批量拉取实时互动计数。
// 缺失的物品不会出现在返回 map 中，调用侧保留静态计数。
func (s *EngagementSource) BatchGetEngagement(
	ctx context.Context,
	itemIDs []string,
) (map[string]core.Engagement, error) {
	if s.Client == nil || len(itemIDs) == 0 {
		return nil, nil
	}

	rows := make([]map[string]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		rows[i] = map[string]interface{}{EntityKey: id}
	}
	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features: []string{
			FeatureViews, FeatureLikes, FeatureDislikes, FeatureSaves, FeatureCompletion,
		},
		EntityRows: rows,
		Project:    s.Project,
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]core.Engagement, len(resp.FeatureVectors))
	for i, vec := range resp.FeatureVectors {
		if i >= len(itemIDs) || len(vec.Values) == 0 {
			continue
		}
		out[itemIDs[i]] = core.Engagement{
			Views:          featureInt64(vec.Values, FeatureViews),
			Likes:          featureInt64(vec.Values, FeatureLikes),
			Dislikes:       featureInt64(vec.Values, FeatureDislikes),
			Saves:          featureInt64(vec.Values, FeatureSaves),
			CompletionRate: featureFloat(vec.Values, FeatureCompletion),
		}
	}
	return out, nil
}

func featureInt64(values map[string]interface{}, name string) int64 {
	if f, ok := conv.ToFloat64(values[name]); ok {
		return int64(f)
	}
	return 0
}

func featureFloat(values map[string]interface{}, name string) float64 {
	f, _ := conv.ToFloat64(values[name])
	return f
}
