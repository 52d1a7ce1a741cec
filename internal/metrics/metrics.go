// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordFeedQuery(scope, policy string, duration time.Duration)
	RecordNotificationSent(notificationType string)
	RecordOutboundFailure(collaborator string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	feedQueryLatency  *prometheus.HistogramVec
	notificationsSent *prometheus.CounterVec
	outboundFailures  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epyson_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		feedQueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epyson_feed_query_latency_seconds",
			Help:    "フィードクエリのレイテンシ（秒）、スコープ・ポリシー別",
			Buckets: prometheus.DefBuckets,
		}, []string{"scope", "policy"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epyson_notifications_sent_total",
			Help: "生成された通知の合計数、種別別",
		}, []string{"type"}),
		outboundFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epyson_outbound_failures_total",
			Help: "外部コラボレーター呼び出し失敗の合計数",
		}, []string{"collaborator"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.feedQueryLatency,
		c.notificationsSent,
		c.outboundFailures,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFeedQuery はフィードクエリのレイテンシをスコープ・ポリシー別に記録する。
func (c *Collector) RecordFeedQuery(scope, policy string, duration time.Duration) {
	c.feedQueryLatency.WithLabelValues(scope, policy).Observe(duration.Seconds())
}

// RecordNotificationSent は通知の生成を種別別に記録する。
func (c *Collector) RecordNotificationSent(notificationType string) {
	c.notificationsSent.WithLabelValues(notificationType).Inc()
}

// RecordOutboundFailure は外部コラボレーター呼び出しの失敗を記録する。
func (c *Collector) RecordOutboundFailure(collaborator string) {
	c.outboundFailures.WithLabelValues(collaborator).Inc()
}

// SetupMetricsRoute はPrometheusメトリクス公開用のHTTPハンドラーを返す。
func SetupMetricsRoute(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
