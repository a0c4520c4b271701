package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 审核请求数
	reviewRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_requests_total",
			Help: "Total number of review requests submitted",
		},
	)

	// 审批操作数
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_approvals_total",
			Help: "Total number of approval operations",
		},
		[]string{"result"}, // approved, ready, rejected
	)

	// 发布门裁决数
	publishGateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_gate_decisions_total",
			Help: "Total number of publish gate decisions",
		},
		[]string{"decision"}, // allow, veto
	)

	// 通知分发数
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"template", "result"}, // result: ok, failed
	)

	// 反馈提交数
	feedbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_feedback_total",
			Help: "Total number of review feedback messages",
		},
	)

	// 历史清理删除数
	historyPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_entries_pruned_total",
			Help: "Total number of history entries removed by retention sweep",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 内容审核状态分布
	contentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contents_by_review_status",
			Help: "Number of content items by review status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(reviewRequestsTotal)
	prometheus.MustRegister(approvalsTotal)
	prometheus.MustRegister(publishGateTotal)
	prometheus.MustRegister(notificationsTotal)
	prometheus.MustRegister(feedbackTotal)
	prometheus.MustRegister(historyPrunedTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(contentsByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标，如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordReviewRequest 记录审核请求
func RecordReviewRequest() {
	reviewRequestsTotal.Inc()
}

// RecordApproval 记录审批操作
func RecordApproval(result string) {
	approvalsTotal.WithLabelValues(result).Inc()
}

// RecordGateDecision 记录发布门裁决
func RecordGateDecision(decision string) {
	publishGateTotal.WithLabelValues(decision).Inc()
}

// RecordNotification 记录一次通知分发
func RecordNotification(template string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(template, result).Inc()
}

// RecordFeedback 记录反馈提交
func RecordFeedback() {
	feedbackTotal.Inc()
}

// RecordHistoryPruned 记录保留期清理删除的历史条数
func RecordHistoryPruned(count int64) {
	if count > 0 {
		historyPrunedTotal.Add(float64(count))
	}
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateContentsByStatus 更新内容审核状态分布指标
func UpdateContentsByStatus(status string, count float64) {
	contentsByStatus.WithLabelValues(status).Set(count)
}
