package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/feedkit/core"
)

// MemoryCorpus 是内存实现的物品语料，用于测试/开发/原型。
// 生产环境中语料由外部文档库提供，这里只实现 core.ItemCorpus 契约。
type MemoryCorpus struct {
	mu    sync.RWMutex
	items map[string]*core.Item
}

var (
	_ core.ItemCorpus  = (*MemoryCorpus)(nil)
	_ core.CorpusSizer = (*MemoryCorpus)(nil)
)

func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{items: make(map[string]*core.Item)}
}

// Put 写入/覆盖一个物品。
func (c *MemoryCorpus) Put(items ...*core.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		if it != nil && it.ID != "" {
			c.items[it.ID] = it
		}
	}
}

// Len 返回语料中的物品数。
func (c *MemoryCorpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// FindByIDs 按 id 批量取物品，保持入参顺序，缺失的 id 静默跳过。
func (c *MemoryCorpus) FindByIDs(ctx context.Context, ids []string) ([]*core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// ForEachWithEmbedding 按 id 升序遍历携带向量的物品（顺序固定，保证重建可复现）。
func (c *MemoryCorpus) ForEachWithEmbedding(ctx context.Context, fn func(*core.Item) error) error {
	c.mu.RLock()
	ids := make([]string, 0, len(c.items))
	for id, it := range c.items {
		if len(it.Embedding) > 0 {
			ids = append(ids, id)
		}
	}
	c.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		c.mu.RLock()
		it := c.items[id]
		c.mu.RUnlock()
		if it == nil {
			continue
		}
		if err := fn(it); err != nil {
			return err
		}
	}
	return nil
}
