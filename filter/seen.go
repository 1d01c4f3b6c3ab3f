package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/feedkit/core"
)

// BloomChecker 是长周期曝光检查接口（按天分键的布隆过滤器）。
// 实现见 ext/store/redis。
type BloomChecker interface {
	// Test 检查 itemID 是否可能在 key 对应的布隆过滤器中。
	// true 表示可能已曝光（有误判率），false 表示一定没有。
	Test(ctx context.Context, key string, itemID string) (bool, error)
}

// Seen 是长周期已读过滤器：游标排除集有 500 条上限、只覆盖当前会话，
// 跨天的"别再给我推这条"靠按天分键的布隆过滤器兜住。
//
// key 布局：{prefix}:bloom:{userID}:{yyyy-mm-dd}，逐天回看 DayWindow 天。
// 布隆误判（把没看过的当成看过）可接受：错杀一条候选远好于重复投递。
type Seen struct {
	Checker   BloomChecker
	KeyPrefix string // 默认 "user:seen"

	// DayWindow 回看天数，零值取 14
	DayWindow int

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

var _ Filter = (*Seen)(nil)

func (f *Seen) Name() string { return "filter.seen" }

func (f *Seen) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Key 返回某用户某天的布隆 key（写入侧同样使用，保证读写一致）。
func (f *Seen) Key(userID string, day time.Time) string {
	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = "user:seen"
	}
	return fmt.Sprintf("%s:bloom:%s:%s", prefix, userID, day.Format("2006-01-02"))
}

func (f *Seen) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Checker == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	window := f.DayWindow
	if window <= 0 {
		window = 14
	}

	day := f.now()
	for i := 0; i < window; i++ {
		seen, err := f.Checker.Test(ctx, f.Key(rctx.UserID, day), item.ID)
		if err == nil && seen {
			return true, nil
		}
		// 检查失败按"没看过"处理，继续翻前一天
		day = day.AddDate(0, 0, -1)
	}
	return false, nil
}
