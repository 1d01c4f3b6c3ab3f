// Package feed 是面向调用方的编排层：一个 GetFeed 操作背后串起
// 画像缓存、多路召回、补全、过滤、混合打分、槽位合成与游标续页。
package feed

import (
	"context"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/cursor"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/pkg/utils"
	"github.com/rushteam/feedkit/profile"
	"github.com/rushteam/feedkit/rank"
	"github.com/rushteam/feedkit/recall"
)

// Strategy 是 feed 策略。匿名请求无论传什么都强制 trending。
type Strategy string

const (
	StrategyPersonalized Strategy = "personalized"
	StrategyTrending     Strategy = "trending"
)

// DefaultMaxLimit 服务端单页上限，调用方传更大的值会被静默收紧。
const DefaultMaxLimit = 50

// DefaultWindows 候选池逐级放宽的时间窗（天）。
var DefaultWindows = []int{3, 7, 14, 30}

// FeedRequest 是一次 feed 请求。
type FeedRequest struct {
	UserID   string
	Cursor   string
	Limit    int
	Strategy Strategy
}

// FeedResponse 是一页 feed。
type FeedResponse struct {
	Items      []*core.Item
	NextCursor string
	HasMore    bool
}

// Service 实现 getFeed 编排。所有依赖显式注入，无包级状态。
type Service struct {
	Profiles *profile.Cache
	Corpus   core.ItemCorpus

	Personalized *recall.Personalized
	Trending     *recall.Trending

	Filters  []filter.Filter
	Ranker   *rank.Hybrid
	Composer *Composer
	Cursor   *cursor.Codec

	// MaxLimit 零值取 DefaultMaxLimit
	MaxLimit int

	// Windows 零值取 DefaultWindows
	Windows []int

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) maxLimit() int {
	if s.MaxLimit > 0 {
		return s.MaxLimit
	}
	return DefaultMaxLimit
}

func (s *Service) windows() []int {
	if len(s.Windows) > 0 {
		return s.Windows
	}
	return DefaultWindows
}

// GetFeed 返回一页 feed。
//
// 语义要点：
//   - limit<=0 返回空页（不是错误）；超上限静默收紧
//   - 游标解析失败按无游标处理（fail closed，回到第一页）
//   - 画像获取失败 fail open 到非个性化路径
//   - 候选不足时逐级放宽时间窗重试，宁可返回少于 limit 也不报错
//   - 仅当语料整体为空时返回 ErrFeedUnavailable，与"这一页恰好为空"区分
func (s *Service) GetFeed(ctx context.Context, req FeedRequest) (*FeedResponse, error) {
	if req.Limit <= 0 {
		return &FeedResponse{}, nil
	}
	limit := req.Limit
	if limit > s.maxLimit() {
		limit = s.maxLimit()
	}

	state := s.decodeCursor(req.Cursor)
	now := s.now()

	strategy := req.Strategy
	if req.UserID == "" {
		strategy = StrategyTrending
	}
	if strategy == "" {
		strategy = StrategyPersonalized
	}

	rctx := &core.RecommendContext{
		UserID:   req.UserID,
		Scene:    string(strategy),
		Page:     state.Page,
		Excluded: state.ExcludedSet(),
	}
	if strategy == StrategyPersonalized && s.Profiles != nil {
		// 画像拿不到就按匿名打分，绝不让画像层失败打穿请求
		prof, err := s.Profiles.Get(ctx, req.UserID)
		if err == nil {
			rctx.User = prof
		}
	}

	// 页越深，起始时间窗越宽：第一页要新鲜，深页要量
	windows := s.windows()
	start := rctx.Page
	if start >= len(windows) {
		start = len(windows) - 1
	}

	// 单个时间窗的流水线失败（语料/存储抖动）不打穿请求：继续放宽重试；
	// 全部时间窗都失败且一无所获，才按"feed 不可用"上报
	var picked []*core.Item
	allFailed := true
	for _, window := range windows[start:] {
		scored, err := s.pipeline(ctx, rctx, strategy, window)
		if err != nil {
			rctx.PutLabel("degraded", utils.Label{Value: "pipeline_error", Source: "feed"})
			continue
		}
		allFailed = false
		picked = s.composer().Compose(scored, rctx.Excluded, limit, req.UserID, rctx.Page, now)
		if len(picked) >= limit {
			break
		}
	}

	if len(picked) == 0 && (allFailed || s.corpusEmpty()) {
		return nil, core.ErrFeedUnavailable
	}

	resp := &FeedResponse{Items: picked}
	if len(picked) == limit {
		resp.HasMore = true
		resp.NextCursor = s.encodeNext(state, picked, now)
	}
	return resp, nil
}

// pipeline 对单个时间窗执行 召回 → 补全 → 过滤 → 打分。
func (s *Service) pipeline(
	ctx context.Context,
	rctx *core.RecommendContext,
	strategy Strategy,
	windowDays int,
) ([]*core.Item, error) {
	items, err := s.recall(ctx, rctx, strategy, windowDays)
	if err != nil {
		return nil, err
	}

	hydrate := &Hydrate{Corpus: s.Corpus}
	items, err = hydrate.Process(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	filterNode := &filter.Node{Filters: s.Filters}
	items, err = filterNode.Process(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	ranker := s.Ranker
	if ranker == nil {
		ranker = &rank.Hybrid{}
	}
	return ranker.Process(ctx, rctx, items)
}

func (s *Service) recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	strategy Strategy,
	windowDays int,
) ([]*core.Item, error) {
	var sources []recall.Source
	if strategy == StrategyPersonalized && s.Personalized != nil {
		sources = append(sources, s.Personalized)
	}
	if s.Trending != nil {
		sources = append(sources, &trendingWindow{src: s.Trending, windowDays: windowDays})
	}
	if len(sources) == 0 {
		return nil, nil
	}
	fanout := &recall.Fanout{Sources: sources, Dedup: true}
	return fanout.Process(ctx, rctx, nil)
}

// trendingWindow 把时间窗参数绑定到热门召回上，使放宽重试无需改源本身。
type trendingWindow struct {
	src        *recall.Trending
	windowDays int
}

func (t *trendingWindow) Name() string { return t.src.Name() }

func (t *trendingWindow) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return t.src.RecallWindow(ctx, rctx, t.windowDays)
}

func (s *Service) composer() *Composer {
	if s.Composer != nil {
		return s.Composer
	}
	return &Composer{}
}

func (s *Service) codec() *cursor.Codec {
	if s.Cursor != nil {
		return s.Cursor
	}
	return &cursor.Codec{}
}

func (s *Service) decodeCursor(token string) *cursor.State {
	if token != "" {
		if state, err := s.codec().Decode(token); err == nil {
			return state
		}
	}
	return cursor.NewState(s.now())
}

func (s *Service) encodeNext(state *cursor.State, served []*core.Item, now time.Time) string {
	ids := make([]string, 0, len(served))
	for _, it := range served {
		ids = append(ids, it.ID)
	}
	state.Append(ids, s.codec().Cap)
	state.Page++
	state.CreatedAt = now.Unix()
	token, err := s.codec().Encode(state)
	if err != nil {
		return ""
	}
	return token
}

func (s *Service) corpusEmpty() bool {
	if c, ok := s.Corpus.(core.CorpusSizer); ok {
		return c.Len() == 0
	}
	return false
}
