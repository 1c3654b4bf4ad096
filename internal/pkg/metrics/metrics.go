package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal 按方法/路由/状态码统计 HTTP 请求总数。
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration 按路由统计请求耗时。
	HTTPRequestDuration *prometheus.HistogramVec
	// AuthFailuresTotal 认证失败（401）总数。
	AuthFailuresTotal prometheus.Counter
	// RateLimitedTotal 被限流拒绝（429）的请求总数。
	RateLimitedTotal prometheus.Counter
	// TasksCompletedTotal 任务被置为 DONE 的次数。
	TasksCompletedTotal prometheus.Counter
	// RemindersSentTotal 已发送的任务到期提醒数。
	RemindersSentTotal prometheus.Counter

	initOnce sync.Once
)

// InitMetrics 注册全部 Prometheus 指标。重复调用是安全的。
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"})

		HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"})

		AuthFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_auth_failures_total",
			Help: "Total rejected unauthenticated requests.",
		})

		RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_rate_limited_total",
			Help: "Total requests rejected by the auth rate limiter.",
		})

		TasksCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_tasks_completed_total",
			Help: "Total task transitions into DONE.",
		})

		RemindersSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_reminders_sent_total",
			Help: "Total due-date reminder emails sent.",
		})

		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AuthFailuresTotal,
			RateLimitedTotal,
			TasksCompletedTotal,
			RemindersSentTotal,
		)
	})
}
