package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CollectorRequestsTotal 按端点与结果统计采集器发出的 HTTP 请求。
	CollectorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_requests_total",
			Help: "Total HTTP requests issued by the collector, by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	// CollectorRequestDuration 采集器请求耗时分布。
	CollectorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collector_request_duration_seconds",
			Help:    "Duration of collector HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CollectorPagesSkipped 因网络或解析失败而跳过的页数。
	CollectorPagesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_pages_skipped_total",
			Help: "Listing pages skipped due to transport or decode failures.",
		},
	)

	// CollectorRecordsSkipped 因字段缺失或非法而跳过的记录数。
	CollectorRecordsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_records_skipped_total",
			Help: "Listing entries skipped due to malformed payloads.",
		},
	)

	// CollectorRecordsCollected 本次运行采集到的记录数。
	CollectorRecordsCollected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "collector_records_collected",
			Help: "Records accumulated by the current crawl run.",
		},
	)

	// DashboardQueriesTotal 按端点统计仪表盘查询次数。
	DashboardQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_queries_total",
			Help: "Dashboard API queries served, by endpoint.",
		},
		[]string{"endpoint"},
	)
)

var registerOnce sync.Once

// InitMetrics 向默认 Registry 注册所有指标。重复调用是安全的。
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CollectorRequestsTotal,
			CollectorRequestDuration,
			CollectorPagesSkipped,
			CollectorRecordsSkipped,
			CollectorRecordsCollected,
			DashboardQueriesTotal,
		)
	})
}
