package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 投票指标
var (
	// VotesCastTotal 投票操作总数
	VotesCastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlib_votes_cast_total",
			Help: "投票操作总数",
		},
		[]string{"direction", "outcome"},
	)
)

// 投稿指标
var (
	// ContributionsTotal 投稿生命周期事件总数
	ContributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlib_contributions_total",
			Help: "投稿生命周期事件总数",
		},
		[]string{"event"},
	)

	// ContributionValidationFailures 投稿校验失败总数
	ContributionValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptlib_contribution_validation_failures_total",
			Help: "投稿校验失败总数",
		},
	)
)

// 搜索指标
var (
	// SearchesTotal 搜索请求总数
	SearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptlib_searches_total",
			Help: "搜索请求总数",
		},
	)
)

// 存储指标
var (
	// StorageFailuresTotal 本地存储降级次数
	StorageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlib_storage_failures_total",
			Help: "本地存储读写降级次数",
		},
		[]string{"op"},
	)
)
