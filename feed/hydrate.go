package feed

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Hydrate 是补全 Node：召回产出的候选往往只有 ID 和召回分，
// 后续过滤（负反馈要看 Source/Categories）和打分（要看向量、计数、发布时间）
// 需要完整字段，这里统一从语料回填。
//
// 语料中不存在的候选直接丢弃；召回侧已写入的 Features/Labels/Score 保留。
type Hydrate struct {
	Corpus core.ItemCorpus
}

var _ pipeline.Node = (*Hydrate)(nil)

func (n *Hydrate) Name() string        { return "feed.hydrate" }
func (n *Hydrate) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Hydrate) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Corpus == nil || len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	full, err := n.Corpus.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*core.Item, len(full))
	for _, it := range full {
		if it != nil {
			byID[it.ID] = it
		}
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		src, ok := byID[it.ID]
		if !ok {
			continue
		}
		it.Embedding = src.Embedding
		it.Source = src.Source
		it.Categories = src.Categories
		it.PublishedAt = src.PublishedAt
		it.Stats = src.Stats
		if it.Meta == nil {
			it.Meta = src.Meta
		}
		out = append(out, it)
	}
	return out, nil
}
