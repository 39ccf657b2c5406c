package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// 任务创建计数
	TaskCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_created_count",
			Help: "Total number of follow-up tasks created",
		},
		[]string{"task_type"},
	)

	// 任务完成计数
	TaskCompletedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_completed_count",
			Help: "Total number of follow-up tasks marked completed",
		},
	)

	// 事件发布失败计数
	NotifyPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_publish_failures_total",
			Help: "Total number of failed event publications",
		},
		[]string{"event_type", "reason"}, // reason: publish_error, queue_full
	)

	// Today 缓存命中情况
	TodayCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "today_cache_requests_total",
			Help: "Today-view cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of slow database queries",
		},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementTaskCreated 增加任务创建计数
func IncrementTaskCreated(taskType string) {
	TaskCreatedCount.WithLabelValues(taskType).Inc()
}

// IncrementTaskCompleted 增加任务完成计数
func IncrementTaskCompleted() {
	TaskCompletedCount.Inc()
}

// IncrementNotifyPublishFailure 增加事件发布失败计数
func IncrementNotifyPublishFailure(eventType, reason string) {
	NotifyPublishFailures.WithLabelValues(eventType, reason).Inc()
}

// IncrementTodayCache 记录缓存查询结果
func IncrementTodayCache(result string) {
	TodayCacheRequests.WithLabelValues(result).Inc()
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}
