package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，按 ID 去重合并结果。
//
// 故障语义：单个召回源超时/出错只丢掉它自己的结果，不中断其他召回源——
// 个性化召回挂了还有热门召回兜底。
type Fanout struct {
	Sources []Source

	// Timeout 是每个召回源的超时时间（0 表示跟随请求 ctx）
	Timeout time.Duration

	// Dedup 按 ID 去重，保留先注册的 Source 产出的那份（Sources 顺序即优先级）
	Dedup bool
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results = make([][]*core.Item, len(n.Sources))
		eg, _   = errgroup.WithContext(ctx)
	)

	for i, src := range n.Sources {
		idx, s := i, src
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				return nil // 超时或错误时丢弃该源结果，不中断其他召回源
			}

			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
			}

			mu.Lock()
			results[idx] = items
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 按 Sources 顺序合并：先注册的源优先（个性化在前、热门在后）
	var all []*core.Item
	if n.Dedup {
		seen := make(map[string]*core.Item)
		for _, items := range results {
			for _, it := range items {
				if it == nil {
					continue
				}
				if old, ok := seen[it.ID]; ok {
					for k, v := range it.Labels {
						old.PutLabel(k, v)
					}
					continue
				}
				seen[it.ID] = it
				all = append(all, it)
			}
		}
	} else {
		for _, items := range results {
			all = append(all, items...)
		}
	}
	return all, nil
}
