// Package feedkit 是一个个性化内容分发引擎（Feed Ranking Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐链路通过 Node 串联（Recall → Filter → Rank → Compose）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 优雅降级: 画像缺失 → 热门兜底；索引缺失 → 非个性化路径；上游故障不致命
// - 无状态翻页: 游标携带曝光排除集，服务端不保存会话状态
package feedkit

import "github.com/rushteam/feedkit/pipeline"

// 轻量 facade：便于用户直接 import "feedkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall  = pipeline.KindRecall
	KindFilter  = pipeline.KindFilter
	KindRank    = pipeline.KindRank
	KindCompose = pipeline.KindCompose
)
