package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/feedkit/core"
)

// InteractionLog 是基于 KeyValueStore 有序集合的行为日志实现。
//
// 存储布局：
//   - key:    {prefix}:{userID}:{type}
//   - member: {itemID}@{unixNano}（nano 后缀保证同一物品多次交互不互相覆盖）
//   - score:  交互时间戳（unix 秒），按 score 倒序即"最新在前"
//
// 实现了 core.InteractionStore 契约：没有历史的用户返回空结果而不是错误。
type InteractionLog struct {
	Store     core.KeyValueStore
	KeyPrefix string // 默认 "interactions"

	// Invalidate 写入成功后按 userID 回调，用于画像缓存的立即失效。
	// 典型接法：log.Invalidate = cache.Invalidate
	Invalidate func(ctx context.Context, userID string)

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

var _ core.InteractionStore = (*InteractionLog)(nil)

func NewInteractionLog(store core.KeyValueStore) *InteractionLog {
	return &InteractionLog{Store: store, KeyPrefix: "interactions"}
}

func (l *InteractionLog) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *InteractionLog) key(userID string, t core.InteractionType) string {
	prefix := l.KeyPrefix
	if prefix == "" {
		prefix = "interactions"
	}
	return fmt.Sprintf("%s:%s:%s", prefix, userID, t)
}

// Append 追加一条行为记录。日志是 append-only 的，记录从不被修改。
func (l *InteractionLog) Append(ctx context.Context, in core.Interaction) error {
	if in.UserID == "" || in.ItemID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "interaction: user and item required")
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}
	member := fmt.Sprintf("%s@%d", in.ItemID, ts.UnixNano())
	if err := l.Store.ZAdd(ctx, l.key(in.UserID, in.Type), float64(ts.Unix()), member); err != nil {
		return err
	}
	if l.Invalidate != nil {
		l.Invalidate(ctx, in.UserID)
	}
	return nil
}

// FindRecent 按时间倒序返回行为记录：每种类型独立取最近 limit 条后合并，
// 整体再按时间倒序（同刻按 itemID 升序，保证确定性）。
func (l *InteractionLog) FindRecent(ctx context.Context, userID string, types []core.InteractionType, limit int, sinceDays int) ([]core.Interaction, error) {
	if userID == "" || len(types) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	now := l.now()
	min := 0.0
	if sinceDays > 0 {
		min = float64(now.AddDate(0, 0, -sinceDays).Unix())
	}
	max := float64(now.Unix() + 60) // 容忍轻微时钟偏差

	var all []core.Interaction
	for _, t := range types {
		members, err := l.Store.ZRangeByScoreDesc(ctx, l.key(userID, t), min, max, int64(limit))
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			itemID, ts, ok := parseMember(m)
			if !ok {
				continue
			}
			all = append(all, core.Interaction{
				UserID:    userID,
				ItemID:    itemID,
				Type:      t,
				Timestamp: ts,
			})
		}
	}

	sortNewestFirst(all)
	return all, nil
}

// CountSince 统计最近 sinceDays 天内所有类型的行为总数。
func (l *InteractionLog) CountSince(ctx context.Context, userID string, sinceDays int) (int, error) {
	if userID == "" {
		return 0, nil
	}
	now := l.now()
	min := float64(now.AddDate(0, 0, -sinceDays).Unix())
	max := float64(now.Unix() + 60)

	types := []core.InteractionType{
		core.InteractionViewPartial,
		core.InteractionViewComplete,
		core.InteractionLike,
		core.InteractionDislike,
		core.InteractionSave,
	}

	var total int64
	for _, t := range types {
		n, err := l.Store.ZCount(ctx, l.key(userID, t), min, max)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return int(total), nil
}

func parseMember(m string) (itemID string, ts time.Time, ok bool) {
	idx := strings.LastIndex(m, "@")
	if idx <= 0 {
		return "", time.Time{}, false
	}
	nanos, err := strconv.ParseInt(m[idx+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return m[:idx], time.Unix(0, nanos), true
}

func sortNewestFirst(ins []core.Interaction) {
	sort.SliceStable(ins, func(i, j int) bool {
		if !ins[i].Timestamp.Equal(ins[j].Timestamp) {
			return ins[i].Timestamp.After(ins[j].Timestamp)
		}
		return ins[i].ItemID < ins[j].ItemID
	})
}
