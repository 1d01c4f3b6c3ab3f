package feed

import (
	"fmt"
	"hash/fnv"
	"time"
)

// SlotRand 是确定性槽位随机源：同一 (userID, page, day) 产生相同序列，
// 同一天内同一请求重试得到完全一致的 feed，跨用户、跨页、跨天则不同。
//
// 用自带的 LCG 而非 math/rand：种子到序列的映射需要跨版本稳定，
// math/rand 的内部算法不承诺这一点。
type SlotRand struct {
	state uint64
}

// NewSlotRand 以 FNV-1a(userID|page|day) 为种子构造随机源。
func NewSlotRand(userID string, page int, day time.Time) *SlotRand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s", userID, page, day.Format("2006-01-02"))
	seed := h.Sum64()
	if seed == 0 {
		seed = 1
	}
	return &SlotRand{state: seed}
}

// Next 返回下一个伪随机数（Numerical Recipes 的 64 位 LCG 参数）。
func (r *SlotRand) Next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// Intn 返回 [0, n) 内的伪随机数，n<=0 返回 0。
func (r *SlotRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int((r.Next() >> 33) % uint64(n))
}

// Shuffle 对 n 个元素做确定性 Fisher-Yates 洗牌。
func (r *SlotRand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}
