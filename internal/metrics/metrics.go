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
// ハンドラー層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordLogin(success bool)
	RecordBlogCreated()
	RecordBlogLiked()
	RecordBlogDeleted()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  prometheus.Histogram
	logins       *prometheus.CounterVec
	blogsCreated prometheus.Counter
	blogsLiked   prometheus.Counter
	blogsDeleted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogman_http_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_logins_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		blogsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_blogs_created_total",
			Help: "作成されたブログの合計数",
		}),
		blogsLiked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_blogs_liked_total",
			Help: "いいね操作の合計数",
		}),
		blogsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_blogs_deleted_total",
			Help: "削除されたブログの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.logins,
		c.blogsCreated,
		c.blogsLiked,
		c.blogsDeleted,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordBlogCreated はブログ作成を記録する。
func (c *Collector) RecordBlogCreated() {
	c.blogsCreated.Inc()
}

// RecordBlogLiked はいいね操作を記録する。
func (c *Collector) RecordBlogLiked() {
	c.blogsLiked.Inc()
}

// RecordBlogDeleted はブログ削除を記録する。
func (c *Collector) RecordBlogDeleted() {
	c.blogsDeleted.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
