package core

import "context"

// IndexMatch 是一次向量检索的单条命中。
// Score 是余弦相似度（索引的固定度量，见 CandidateIndex），Distance = 1 - Score。
type IndexMatch struct {
	ID       string
	Score    float64
	Distance float64
}

// CandidateIndex 是候选索引的领域接口：给定 query 向量返回最近的 TopK 物品。
//
// 约定：
//   - 度量固定为余弦相似度，§rank 的 similarity 子分数与之一致（clamp 到 [0,1]）
//   - 重建是批量后台操作，不在请求路径上；新物品在下次重建前不可见（接受的时滞）
//   - 读者要么看到完整的旧索引、要么看到完整的新索引（原子快照切换），
//     绝不会看到半成品
//   - 索引缺失/为空返回 ErrIndexUnavailable，调用方降级到非个性化路径
type CandidateIndex interface {
	// Name 返回索引名称（用于日志/监控）
	Name() string

	// Search 返回与 query 最相似的 topK 个物品，按 Score 降序；
	// 分数相同按 ID 升序，保证结果可复现。
	Search(ctx context.Context, query []float64, topK int) ([]IndexMatch, error)

	// Dimension 返回索引配置的向量维度
	Dimension() int

	// Len 返回当前快照中的物品数
	Len() int
}
