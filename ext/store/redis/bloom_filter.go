// Package redis 提供基于 Redis 的扩展组件：
// 按天分键的布隆过滤器，支撑长周期已读过滤。
package redis

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/store"
)

// BloomSeenChecker 是基于 Redis 与 bits-and-blooms/bloom 的已读检查器。
// 布隆过滤器按 key（用户+天）序列化存在 Redis，读取后缓存在本地，
// 避免每个候选都做一次反序列化。
//
// 写入侧在曝光落库时调用 Add，读取侧由 filter.Seen 驱动 Test。
type BloomSeenChecker struct {
	client *goredis.Client

	// capacity 预期元素数量，falsePositiveRate 期望误判率（如 0.01）
	capacity          uint
	falsePositiveRate float64

	cache map[string]*bloom.BloomFilter
	mu    sync.RWMutex
}

var _ filter.BloomChecker = (*BloomSeenChecker)(nil)

// NewBloomSeenChecker 基于 RedisStore 创建检查器。
func NewBloomSeenChecker(s *store.RedisStore, capacity uint, falsePositiveRate float64) *BloomSeenChecker {
	return NewBloomSeenCheckerWithClient(s.GetClient(), capacity, falsePositiveRate)
}

// NewBloomSeenCheckerWithClient 使用已有 *redis.Client 创建检查器。
func NewBloomSeenCheckerWithClient(client *goredis.Client, capacity uint, falsePositiveRate float64) *BloomSeenChecker {
	return &BloomSeenChecker{
		client:            client,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// Test 检查 itemID 是否可能在 key 对应的布隆过滤器中。
// key 不存在表示一定没曝光过。
func (r *BloomSeenChecker) Test(ctx context.Context, key string, itemID string) (bool, error) {
	r.mu.RLock()
	cached := r.cache[key]
	r.mu.RUnlock()
	if cached != nil {
		return cached.Test([]byte(itemID)), nil
	}

	bf, err := r.load(ctx, key)
	if err != nil {
		return false, err
	}
	if bf == nil {
		return false, nil
	}

	r.mu.Lock()
	r.cache[key] = bf
	r.mu.Unlock()
	return bf.Test([]byte(itemID)), nil
}

// Add 把 itemID 写入 key 对应的布隆过滤器并持久化。
// ttl 单位秒，0 表示不过期；按天分键时 ttl 通常取回看窗口长度。
func (r *BloomSeenChecker) Add(ctx context.Context, key string, itemID string, ttl int) error {
	return r.BatchAdd(ctx, key, []string{itemID}, ttl)
}

// BatchAdd 批量写入（曝光落库场景）。
func (r *BloomSeenChecker) BatchAdd(ctx context.Context, key string, itemIDs []string, ttl int) error {
	r.mu.RLock()
	bf := r.cache[key]
	r.mu.RUnlock()

	if bf == nil {
		loaded, err := r.load(ctx, key)
		if err != nil {
			return err
		}
		bf = loaded
		if bf == nil {
			bf = bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
		}
	}

	for _, id := range itemIDs {
		bf.Add([]byte(id))
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize bloom filter: %w", err)
	}
	var expiration time.Duration
	if ttl > 0 {
		expiration = time.Duration(ttl) * time.Second
	}
	if err := r.client.Set(ctx, key, buf.Bytes(), expiration).Err(); err != nil {
		return fmt.Errorf("save bloom filter: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = bf
	r.mu.Unlock()
	return nil
}

// ClearCache 清除本地缓存，强制下次从 Redis 重新加载。
func (r *BloomSeenChecker) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*bloom.BloomFilter)
}

// load 从 Redis 读取并反序列化，key 不存在返回 (nil, nil)。
func (r *BloomSeenChecker) load(ctx context.Context, key string) (*bloom.BloomFilter, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bloom filter: %w", err)
	}
	bf := bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserialize bloom filter: %w", err)
	}
	return bf, nil
}
