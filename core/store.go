package core

import "context"

// Store 是 KV 存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 调用方必须把存储当作不可靠的：任何读写失败都按 cache miss 处理，
//     绝不作为请求失败向上传播（画像缓存、排除集都是 best-effort）
//
// 实现：
//   - store.MemoryStore（测试/开发/原型）
//   - store.RedisStore（生产）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值；不存在返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value；ttl 为过期秒数（可选，0 表示不过期）
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取（减少网络往返）；缺失的 key 不出现在结果中
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，提供有序集合操作。
//
// feedkit 中的用途：
//   - 行为日志：score = 交互时间戳，按时间倒序读取有界窗口
//   - 热门榜单：score = 互动热度，ZRange 取 TopN
//
// 如果后端不支持某些操作，可返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZIncrBy 增加成员的分数（用于热度计数）
	ZIncrBy(ctx context.Context, key string, delta float64, member string) error

	// ZRange 按分数降序获取 [start, stop] 区间成员（用于 TopN 召回）
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZRangeByScoreDesc 按分数降序获取 score ∈ [min, max] 的前 limit 个成员
	// （用于"最近 N 天内最新的 limit 条行为"）
	ZRangeByScoreDesc(ctx context.Context, key string, min, max float64, limit int64) ([]string, error)

	// ZCount 统计 score ∈ [min, max] 的成员数（用于活跃度分层）
	ZCount(ctx context.Context, key string, min, max float64) (int64, error)

	// ZScore 获取成员的分数；不存在返回 ErrStoreNotFound
	ZScore(ctx context.Context, key string, member string) (float64, error)
}
