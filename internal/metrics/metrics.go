package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PollTicks 轮询 tick 次数（result: ok / fetch_error / no_data）
	PollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elderguard_poll_ticks_total",
		Help: "Live snapshot poll ticks by result.",
	}, []string{"result"})

	// FetchDuration 实时记录读取耗时
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "elderguard_live_fetch_duration_seconds",
		Help:    "Latency of live snapshot fetches.",
		Buckets: prometheus.DefBuckets,
	})

	// WarningEvents 分类器产生的报警事件
	WarningEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elderguard_warning_events_total",
		Help: "Warning events emitted by the classifier.",
	}, []string{"kind"})

	// Dispatches 通知分发结果（outcome: sent / duplicate / failed / skipped / ledger_error）
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elderguard_dispatch_total",
		Help: "Notification dispatch outcomes.",
	}, []string{"kind", "outcome"})

	// HistoryQueries 历史查询（result: ok / empty / invalid / error）
	HistoryQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elderguard_history_queries_total",
		Help: "History range queries by result.",
	}, []string{"result"})
)

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
