package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/feedkit/core"
)

// TTL 分层（"smart TTL"）：活跃用户兴趣漂移快、重算便宜（相对其价值），
// 低活用户画像稳定、不值得频繁重算。
const (
	ActivityWindowDays = 7

	HighActivityCount   = 10 // 近 7 天 ≥10 次交互
	MediumActivityCount = 3  // 近 7 天 3-9 次交互

	ShortTTLSeconds  = 6 * 3600       // 高活：6 小时
	MediumTTLSeconds = 24 * 3600      // 中活：24 小时
	LongTTLSeconds   = 7 * 24 * 3600  // 低活：7 天
)

// Cache 是画像缓存：core.Store 之上的一层，miss 时触发 Builder 重建。
//
// 可靠性约定：存储是不可靠协作方，任何读写失败都按 miss 处理、绝不上抛；
// 缓存回写是 best-effort（at-most-once），失败只意味着下次再算一遍。
//
// 并发约定：同一用户的并发重建用 singleflight 合并（"至多一个并发重建"是
// should 而非硬约束——两个并发写者读的是同一窗口的行为日志，last-writer-wins
// 是良性竞争）。
type Cache struct {
	Store   core.Store
	Builder *Builder

	// Interactions 用于活跃度分层；nil 时固定用 MediumTTL
	Interactions core.InteractionStore

	KeyPrefix string // 默认 "profile"

	group singleflight.Group
}

func NewCache(store core.Store, builder *Builder, interactions core.InteractionStore) *Cache {
	return &Cache{
		Store:        store,
		Builder:      builder,
		Interactions: interactions,
		KeyPrefix:    "profile",
	}
}

func (c *Cache) key(userID string) string {
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = "profile"
	}
	return fmt.Sprintf("%s:%s", prefix, userID)
}

// Get 返回用户画像：缓存命中直接返回，miss 时重建并回写。
// 返回 (nil, nil) 表示该用户无法个性化。
func (c *Cache) Get(ctx context.Context, userID string) (*core.UserProfile, error) {
	if userID == "" {
		return nil, nil
	}

	if prof := c.lookup(ctx, userID); prof != nil {
		return prof, nil
	}

	// miss → 合并并发重建
	v, err, _ := c.group.Do(userID, func() (any, error) {
		// double-check：排队期间可能已有同行者回写
		if prof := c.lookup(ctx, userID); prof != nil {
			return prof, nil
		}

		prof, berr := c.Builder.Build(ctx, userID)
		if berr != nil || prof == nil {
			return nil, nil
		}
		c.put(ctx, userID, prof)
		return prof, nil
	})
	if err != nil || v == nil {
		return nil, nil
	}
	return v.(*core.UserProfile), nil
}

// Invalidate 立即失效用户的缓存画像。
// 任何写交互（like/dislike/save）后必须调用：显式偏好信号之后的陈旧画像
// 不可接受，即使仍在 TTL 内。删除失败忽略（下一次 TTL 过期兜底）。
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if userID == "" || c.Store == nil {
		return
	}
	_ = c.Store.Delete(ctx, c.key(userID))
}

// lookup 读缓存；任何失败（连接、反序列化）都按 miss 处理。
func (c *Cache) lookup(ctx context.Context, userID string) *core.UserProfile {
	if c.Store == nil {
		return nil
	}
	data, err := c.Store.Get(ctx, c.key(userID))
	if err != nil || len(data) == 0 {
		return nil
	}
	var prof core.UserProfile
	if jerr := json.Unmarshal(data, &prof); jerr != nil {
		return nil
	}
	return &prof
}

// put 回写缓存（best-effort，失败忽略）。
func (c *Cache) put(ctx context.Context, userID string, prof *core.UserProfile) {
	if c.Store == nil {
		return
	}
	data, err := json.Marshal(prof)
	if err != nil {
		return
	}
	_ = c.Store.Set(ctx, c.key(userID), data, c.ttlFor(ctx, userID))
}

// ttlFor 按近 7 天活跃度分层计算 TTL 秒数。
func (c *Cache) ttlFor(ctx context.Context, userID string) int {
	if c.Interactions == nil {
		return MediumTTLSeconds
	}
	n, err := c.Interactions.CountSince(ctx, userID, ActivityWindowDays)
	if err != nil {
		return MediumTTLSeconds
	}
	switch {
	case n >= HighActivityCount:
		return ShortTTLSeconds
	case n >= MediumActivityCount:
		return MediumTTLSeconds
	default:
		return LongTTLSeconds
	}
}

// TTLForActivity 暴露分层函数本身，便于测试与监控打点。
func TTLForActivity(count int) int {
	switch {
	case count >= HighActivityCount:
		return ShortTTLSeconds
	case count >= MediumActivityCount:
		return MediumTTLSeconds
	default:
		return LongTTLSeconds
	}
}
