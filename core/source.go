package core

import "context"

// InteractionStore 是行为日志的领域接口（外部协作方契约）。
//
// 约定：
//   - FindRecent 必须按时间倒序（最新在前）返回
//   - 没有历史的 userId 返回空结果而不是错误
//   - 任何读取失败由调用方按"无画像"处理（fail open 到热门兜底）
type InteractionStore interface {
	// FindRecent 返回用户最近的行为记录：限定类型集合、每次调用最多 limit 条、
	// 只看最近 sinceDays 天（sinceDays <= 0 表示不限）。
	FindRecent(ctx context.Context, userID string, types []InteractionType, limit int, sinceDays int) ([]Interaction, error)

	// CountSince 统计用户最近 sinceDays 天的行为总数（用于画像缓存的活跃度分层 TTL）。
	CountSince(ctx context.Context, userID string, sinceDays int) (int, error)
}

// ItemCorpus 是物品语料的领域接口（外部协作方契约）。
//
// 约定：
//   - FindByIDs 对不存在的 id 静默跳过（数据完整性问题不致命）
//   - ForEachWithEmbedding 只回调携带向量的物品，用于索引重建；
//     向量维度不符的物品由索引侧排除，不会使重建失败
type ItemCorpus interface {
	// FindByIDs 按 id 批量取物品，保持入参顺序，缺失的 id 跳过。
	FindByIDs(ctx context.Context, ids []string) ([]*Item, error)

	// ForEachWithEmbedding 遍历所有携带向量的物品。fn 返回错误时中止遍历。
	ForEachWithEmbedding(ctx context.Context, fn func(*Item) error) error
}

// CorpusSizer 是 ItemCorpus 的可选扩展：暴露语料规模，
// 用于区分"语料彻底为空"（ErrFeedUnavailable）与"这一页恰好为空"。
// 未实现时引擎退而依赖流水线的失败信号做该区分。
type CorpusSizer interface {
	Len() int
}

// EngagementSource 提供实时互动计数（可选协作方，如 Feast 在线特征）。
// 取不到时调用方继续使用语料中的静态计数。
type EngagementSource interface {
	// BatchGetEngagement 批量获取物品的实时互动统计；缺失的 id 不出现在结果中。
	BatchGetEngagement(ctx context.Context, itemIDs []string) (map[string]Engagement, error)
}
