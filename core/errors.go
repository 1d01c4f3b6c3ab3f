package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误恢复策略（贯穿整个引擎）：
//   - 上游不可用（store / index / cache）→ 降级到下一级策略，绝不向调用方抛错
//   - 输入非法（游标损坏、维度不匹配）→ 重置为默认状态
//   - 数据完整性（交互引用的物品已不存在）→ 静默跳过，不参与聚合
//
// 唯一向调用方显式暴露的故障是 ErrFeedUnavailable：语料彻底为空，
// 用于区分"没有更多内容"（空页）和"系统坏了"。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "index", "feed"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效
)

// 模块名称常量
const (
	ModuleStore   = "store"   // KV 存储
	ModuleIndex   = "index"   // 候选索引
	ModuleProfile = "profile" // 用户画像
	ModuleFeed    = "feed"    // Feed 服务
	ModuleCursor  = "cursor"  // 翻页游标
)

var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")

	// ErrIndexUnavailable 表示候选索引不存在或尚未构建完成，调用方应降级到非个性化路径
	ErrIndexUnavailable = NewDomainError(ModuleIndex, ErrorCodeUnavailable, "index: not built or empty")

	// ErrNoCompatibleEmbedding 表示向量无法适配到索引要求的维度
	ErrNoCompatibleEmbedding = NewDomainError(ModuleIndex, ErrorCodeInvalidInput, "index: no compatible embedding for required dimension")

	// ErrFeedUnavailable 表示语料彻底为空，区别于"没有更多内容"的空页
	ErrFeedUnavailable = NewDomainError(ModuleFeed, ErrorCodeUnavailable, "feed: corpus is empty")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
	}
	return false
}
