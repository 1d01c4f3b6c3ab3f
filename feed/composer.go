package feed

import (
	"math"
	"sort"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
	"github.com/rushteam/feedkit/rank"
)

// 槽位配比：主槽吃头部排序结果，多样性槽从"还算相关但排不进头部"的
// 候选里抽，热门槽注入高互动候选打破信息茧房。配比按 ceil 取整，
// 合成后截断到 limit。
const (
	DefaultMainRatio      = 0.85
	DefaultDiversityRatio = 0.10
	DefaultTrendingRatio  = 0.05

	// DefaultSimilarityFloor 多样性槽的相关性下限：低于此相似度的候选
	// 对用户而言是噪声而不是多样性
	DefaultSimilarityFloor = 0.3
)

// Composer 把打好分的候选合成最终 feed 页。
//
// 所有"随机"位置都来自种子化的 SlotRand：同一 (user, page, day)
// 重复请求得到完全一致的页面，不同天自然轮换。
//
// 配比字段零值表示"未设置"，取默认配比；显式传负值才关闭对应槽位。
type Composer struct {
	MainRatio       float64
	DiversityRatio  float64
	TrendingRatio   float64
	SimilarityFloor float64
}

func (c *Composer) ratios() (main, diversity, trending, floor float64) {
	main, diversity, trending = c.MainRatio, c.DiversityRatio, c.TrendingRatio
	if main <= 0 {
		main = DefaultMainRatio
	}
	if diversity == 0 {
		diversity = DefaultDiversityRatio
	}
	if trending == 0 {
		trending = DefaultTrendingRatio
	}
	floor = c.SimilarityFloor
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	return main, diversity, trending, floor
}

// Compose 合成一页 feed：排除 → 主槽 → 多样性注入 → 热门注入 → 截断。
// scored 必须已按最终分降序排好。返回实际投递的物品（即本页 served 集）。
func (c *Composer) Compose(
	scored []*core.Item,
	excluded map[string]bool,
	limit int,
	userID string,
	page int,
	day time.Time,
) []*core.Item {
	if limit <= 0 || len(scored) == 0 {
		return nil
	}
	mainRatio, diversityRatio, trendingRatio, floor := c.ratios()

	pool := make([]*core.Item, 0, len(scored))
	for _, it := range scored {
		if it == nil || excluded[it.ID] {
			continue
		}
		pool = append(pool, it)
	}
	if len(pool) == 0 {
		return nil
	}

	rnd := NewSlotRand(userID, page, day)

	mainCount := ceilRatio(limit, mainRatio)
	if mainCount > len(pool) {
		mainCount = len(pool)
	}
	picked := make([]*core.Item, 0, limit)
	chosen := make(map[string]bool, limit)
	for _, it := range pool[:mainCount] {
		it.PutLabel("slot", utils.Label{Value: "personalized", Source: "compose"})
		picked = append(picked, it)
		chosen[it.ID] = true
	}

	// 多样性槽：主槽之外、相似度仍在下限之上的候选，种子洗牌后取前 N
	divCount := ceilRatio(limit, diversityRatio)
	if divCount > 0 {
		var candidates []*core.Item
		for _, it := range pool[mainCount:] {
			if chosen[it.ID] {
				continue
			}
			if it.Feature("similarity") > floor {
				candidates = append(candidates, it)
			}
		}
		rnd.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, it := range candidates {
			if divCount == 0 {
				break
			}
			it.PutLabel("slot", utils.Label{Value: "diversity", Source: "compose"})
			picked = insertAt(picked, it, rnd.Intn(len(picked)+1))
			chosen[it.ID] = true
			divCount--
		}
	}

	// 热门槽：剩余候选按互动热度取最高，同样插到确定性随机位置
	trendCount := ceilRatio(limit, trendingRatio)
	if trendCount > 0 {
		var candidates []*core.Item
		for _, it := range pool {
			if !chosen[it.ID] {
				candidates = append(candidates, it)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := rank.EngagementScore(candidates[i].Stats), rank.EngagementScore(candidates[j].Stats)
			if a != b {
				return a > b
			}
			return candidates[i].ID < candidates[j].ID
		})
		for _, it := range candidates {
			if trendCount == 0 {
				break
			}
			it.PutLabel("slot", utils.Label{Value: "trending", Source: "compose"})
			picked = insertAt(picked, it, rnd.Intn(len(picked)+1))
			chosen[it.ID] = true
			trendCount--
		}
	}

	if len(picked) > limit {
		picked = picked[:limit]
	}
	return picked
}

func ceilRatio(limit int, ratio float64) int {
	if ratio <= 0 {
		return 0
	}
	return int(math.Ceil(float64(limit) * ratio))
}

func insertAt(items []*core.Item, it *core.Item, pos int) []*core.Item {
	if pos < 0 {
		pos = 0
	}
	if pos > len(items) {
		pos = len(items)
	}
	items = append(items, nil)
	copy(items[pos+1:], items[pos:])
	items[pos] = it
	return items
}
