// Package feast 对接 Feast Feature Store 的在线特征服务，
// 为打分层提供实时互动计数。
package feast

import "context"

// Client 是 Feast 在线特征客户端接口。
// 领域层只依赖此接口，gRPC 实现见 GrpcClient。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时打分）。
	// features 形如 ["item_engagement:views", "item_engagement:likes"]，
	// entityRows 形如 [{"item_id": "a"}, {"item_id": "b"}]。
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["item_engagement:views"]
	Features []string

	// EntityRows 实体行，例如 [{"item_id": "a"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省用客户端默认值）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应。
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与 EntityRows 一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值集合。
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}
