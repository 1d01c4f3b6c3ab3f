// Package config 把内置 Node 注册到 NodeFactory，支撑配置驱动的 Pipeline 组装。
//
// Node 往往需要运行时依赖（索引、存储、语料），这些无法放进 YAML——
// 依赖通过 Deps 注入，builder 闭包捕获后再按配置构建 Node。
package config

import (
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/feed"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/conv"
	"github.com/rushteam/feedkit/rank"
	"github.com/rushteam/feedkit/recall"
)

// Deps 是 Node 构建所需的运行时依赖。
type Deps struct {
	Index      core.CandidateIndex
	Store      core.KeyValueStore
	Corpus     core.ItemCorpus
	Engagement core.EngagementSource
	Seen       filter.BloomChecker
}

// DefaultFactory 返回注册了全部内置 Node 的 NodeFactory。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register("recall.fanout", func(cfg map[string]any) (pipeline.Node, error) {
		names := conv.ConfigGet[[]any](cfg, "sources", nil)
		var sources []recall.Source
		for _, n := range names {
			name, ok := n.(string)
			if !ok {
				return nil, fmt.Errorf("recall.fanout: source name must be string, got %T", n)
			}
			src, err := buildSource(deps, name, cfg)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
		return &recall.Fanout{Sources: sources, Dedup: true}, nil
	})

	f.Register("feed.hydrate", func(cfg map[string]any) (pipeline.Node, error) {
		return &feed.Hydrate{Corpus: deps.Corpus}, nil
	})

	f.Register("filter", func(cfg map[string]any) (pipeline.Node, error) {
		names := conv.ConfigGet[[]any](cfg, "filters", nil)
		var filters []filter.Filter
		for _, n := range names {
			name, ok := n.(string)
			if !ok {
				return nil, fmt.Errorf("filter: filter name must be string, got %T", n)
			}
			fl, err := buildFilter(deps, name, cfg)
			if err != nil {
				return nil, err
			}
			filters = append(filters, fl)
		}
		return &filter.Node{Filters: filters}, nil
	})

	f.Register("rank.hybrid", func(cfg map[string]any) (pipeline.Node, error) {
		return &rank.Hybrid{Engagement: deps.Engagement}, nil
	})

	return f
}

// SupportedTypes 返回内置 Node 类型清单，便于配置校验与排错提示。
func SupportedTypes() []string {
	return []string{"recall.fanout", "feed.hydrate", "filter", "rank.hybrid"}
}

func buildSource(deps Deps, name string, cfg map[string]any) (recall.Source, error) {
	switch name {
	case "personalized":
		return &recall.Personalized{
			Index:    deps.Index,
			TopK:     conv.ConfigGetInt(cfg, "top_k", 0),
			MinScore: conv.ConfigGetFloat64(cfg, "min_score", 0),
		}, nil
	case "trending":
		return &recall.Trending{
			Store:      deps.Store,
			Corpus:     deps.Corpus,
			TopK:       conv.ConfigGetInt(cfg, "top_k", 0),
			WindowDays: conv.ConfigGetInt(cfg, "window_days", 0),
		}, nil
	default:
		return nil, fmt.Errorf("unknown recall source: %s", name)
	}
}

func buildFilter(deps Deps, name string, cfg map[string]any) (filter.Filter, error) {
	switch name {
	case "exclusion":
		return &filter.Exclusion{}, nil
	case "negative":
		return &filter.NegativeSignal{}, nil
	case "seen":
		return &filter.Seen{Checker: deps.Seen}, nil
	case "rule":
		expr := conv.ConfigGet[string](cfg, "rule_expr", "")
		if expr == "" {
			return nil, fmt.Errorf("filter rule requires rule_expr")
		}
		return filter.NewRule(expr)
	default:
		return nil, fmt.Errorf("unknown filter: %s", name)
	}
}
