// Package cursor 实现无状态翻页游标：服务端不保存任何会话状态，
// 已投递集合、页码等全部编码进游标随请求往返。
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/rushteam/feedkit/core"
)

// Version 是游标格式版本号，格式变更时递增。版本不匹配按无效游标处理。
const Version = 1

// DefaultExclusionCap 是排除集上限：超出后 FIFO 淘汰最老的条目。
// 上限住了游标体积，代价是很老的已投递物品可能重新出现，可接受。
const DefaultExclusionCap = 500

// ErrInvalidCursor 表示游标无法解析或版本不符。
// 调用侧应按"无游标"降级到第一页，绝不向客户端透出解析细节。
var ErrInvalidCursor = &core.DomainError{
	Code:    core.ErrorCodeInvalidInput,
	Message: "invalid cursor",
	Module:  core.ModuleCursor,
}

// State 是游标携带的翻页状态。
type State struct {
	Version      int      `json:"v"`
	LastServedID string   `json:"last,omitempty"`
	Excluded     []string `json:"ex,omitempty"`
	Page         int      `json:"page"`
	CreatedAt    int64    `json:"ts"`
}

// NewState 返回第一页之后的初始状态。
func NewState(now time.Time) *State {
	return &State{Version: Version, CreatedAt: now.Unix()}
}

// Append 把本页投递的 ID 追加进排除集，超过 cap 时 FIFO 淘汰队首。
func (s *State) Append(served []string, cap int) {
	if cap <= 0 {
		cap = DefaultExclusionCap
	}
	s.Excluded = append(s.Excluded, served...)
	if n := len(s.Excluded); n > cap {
		s.Excluded = s.Excluded[n-cap:]
	}
	if len(served) > 0 {
		s.LastServedID = served[len(served)-1]
	}
}

// ExcludedSet 把排除集展开成查找表。
func (s *State) ExcludedSet() map[string]bool {
	if len(s.Excluded) == 0 {
		return nil
	}
	set := make(map[string]bool, len(s.Excluded))
	for _, id := range s.Excluded {
		set[id] = true
	}
	return set
}

// Codec 负责游标的编解码。游标是 base64url(JSON)，不透明但不加密：
// 内容只有物品 ID 和页码，无敏感信息，篡改的后果只是自己的 feed 变差。
type Codec struct {
	// Cap 排除集上限，零值取 DefaultExclusionCap
	Cap int
}

// Encode 序列化 State。编码前先收紧排除集到上限。
func (c *Codec) Encode(s *State) (string, error) {
	if s == nil {
		return "", ErrInvalidCursor
	}
	cap := c.Cap
	if cap <= 0 {
		cap = DefaultExclusionCap
	}
	if n := len(s.Excluded); n > cap {
		s.Excluded = s.Excluded[n-cap:]
	}
	s.Version = Version
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode 解析游标。任何解析失败（坏 base64、坏 JSON、版本不符、非法页码）
// 统一返回 ErrInvalidCursor，fail closed。
func (c *Codec) Decode(token string) (*State, error) {
	if token == "" {
		return nil, ErrInvalidCursor
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ErrInvalidCursor
	}
	if s.Version != Version || s.Page < 0 {
		return nil, ErrInvalidCursor
	}
	return &s, nil
}
