// Package vector 提供候选索引实现：给定用户兴趣向量，返回最相似的 TopK 物品。
package vector

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/rushteam/feedkit/core"
)

// MemoryIndex 是内存实现的候选索引（暴力余弦检索）。
//
// 度量固定为余弦相似度（有意不做可配置：rank 的 similarity 子分数必须与索引
// 度量一致，见 core.CandidateIndex）。
//
// 并发模型：单写多读。Rebuild 在后台整体构建新快照后用原子指针切换，
// 读者要么看到完整的旧索引、要么看到完整的新索引，绝不会看到半成品。
// 新入库物品在下次 Rebuild 前不可见，这是接受的时滞。
type MemoryIndex struct {
	dim  int
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	ids  []string
	vecs [][]float64
}

var _ core.CandidateIndex = (*MemoryIndex)(nil)

// NewMemoryIndex 创建一个空索引。dim 是索引要求的向量维度；
// 在首次 Rebuild 完成前 Search 返回 ErrIndexUnavailable。
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{dim: dim}
}

func (m *MemoryIndex) Name() string   { return "index.memory" }
func (m *MemoryIndex) Dimension() int { return m.dim }

func (m *MemoryIndex) Len() int {
	snap := m.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.ids)
}

// Rebuild 从语料整体重建索引并原子切换快照。
// 向量无法适配到索引维度的物品被跳过（不会使重建失败）。
// 这是批量后台操作，不应出现在请求路径上。
func (m *MemoryIndex) Rebuild(ctx context.Context, corpus core.ItemCorpus) error {
	next := &snapshot{}
	err := corpus.ForEachWithEmbedding(ctx, func(it *core.Item) error {
		if it == nil || it.ID == "" {
			return nil
		}
		vec, aerr := core.AdaptEmbedding(it.Embedding, m.dim)
		if aerr != nil {
			return nil // 维度不兼容：排除出索引，而不是中断重建
		}
		next.ids = append(next.ids, it.ID)
		next.vecs = append(next.vecs, vec)
		return nil
	})
	if err != nil {
		return err
	}

	m.snap.Store(next)
	return nil
}

// Search 返回与 query 最相似的 topK 个物品，按相似度降序；
// 相似度相同按 ID 升序，保证结果可复现。
func (m *MemoryIndex) Search(ctx context.Context, query []float64, topK int) ([]core.IndexMatch, error) {
	snap := m.snap.Load()
	if snap == nil || len(snap.ids) == 0 {
		return nil, core.ErrIndexUnavailable
	}
	if len(query) != m.dim {
		return nil, core.ErrNoCompatibleEmbedding
	}
	if topK <= 0 {
		topK = 10
	}

	matches := make([]core.IndexMatch, 0, len(snap.ids))
	for i, id := range snap.ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim := core.CosineSimilarity(query, snap.vecs[i])
		matches = append(matches, core.IndexMatch{
			ID:       id,
			Score:    sim,
			Distance: 1 - sim,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
