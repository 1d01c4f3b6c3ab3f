package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Personalized 是向量检索召回源：用画像兴趣向量查候选索引。
//
// 降级语义：画像缺失、向量维度不符、索引未建好都返回空结果而不是错误——
// Fanout 里的其他召回源（热门）继续兜底。
type Personalized struct {
	Index core.CandidateIndex
	TopK  int // 默认 100

	// MinScore 过滤相似度过低的命中（0 表示不过滤）
	MinScore float64
}

var _ Source = (*Personalized)(nil)

func (r *Personalized) Name() string { return "recall.emb" }

func (r *Personalized) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil || rctx == nil || rctx.User == nil {
		return nil, nil
	}
	if !rctx.User.HasVector(r.Index.Dimension()) {
		return nil, nil // 维度不匹配：回退非个性化，绝不混维度检索
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	matches, err := r.Index.Search(ctx, rctx.User.InterestVector, topK)
	if err != nil {
		if core.IsUnavailable(err) {
			rctx.PutLabel("degraded", utils.Label{Value: "index_unavailable", Source: "recall"})
		}
		return nil, nil
	}

	out := make([]*core.Item, 0, len(matches))
	for _, m := range matches {
		if r.MinScore > 0 && m.Score < r.MinScore {
			continue
		}
		it := core.NewItem(m.ID)
		it.Score = m.Score
		it.PutFeature("similarity", clamp01(m.Score))
		out = append(out, it)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
