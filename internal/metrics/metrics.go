// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 集約処理の結果ラベル
const (
	OutcomeOK                  = "ok"
	OutcomeInvalidInput        = "invalid_input"
	OutcomeNotFound            = "not_found"
	OutcomeUpstreamUnavailable = "upstream_unavailable"
	OutcomeCanceled            = "canceled"
	OutcomeError               = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ハンドラー・キャッシュから利用する。
type MetricsCollector interface {
	RecordAggregation(platform, outcome string)
	RecordAggregationLatency(duration time.Duration)
	RecordVideoLimit(limit int)
	RecordCacheLookup(result string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	aggregations       *prometheus.CounterVec
	aggregationLatency prometheus.Histogram
	videoLimits        *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelscope_aggregations_total",
			Help: "クリエイター集約リクエストの結果別合計数",
		}, []string{"platform", "outcome"}),
		aggregationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reelscope_aggregation_latency_seconds",
			Help:    "クリエイター集約のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		videoLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelscope_video_limit_total",
			Help: "適用された動画件数上限別のリクエスト数",
		}, []string{"limit"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelscope_profile_cache_lookups_total",
			Help: "プロフィールキャッシュの参照結果別合計数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelscope_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.aggregations,
		c.aggregationLatency,
		c.videoLimits,
		c.cacheLookups,
		c.httpStatus,
	)

	return c
}

// RecordAggregation は集約リクエストの結果を記録する。
func (c *Collector) RecordAggregation(platform, outcome string) {
	c.aggregations.WithLabelValues(platform, outcome).Inc()
}

// RecordAggregationLatency は集約のレイテンシを記録する。
func (c *Collector) RecordAggregationLatency(duration time.Duration) {
	c.aggregationLatency.Observe(duration.Seconds())
}

// RecordVideoLimit は適用した動画件数上限を記録する。
func (c *Collector) RecordVideoLimit(limit int) {
	c.videoLimits.WithLabelValues(strconv.Itoa(limit)).Inc()
}

// RecordCacheLookup はプロフィールキャッシュの参照結果（hit, miss, error）を記録する。
func (c *Collector) RecordCacheLookup(result string) {
	c.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// StatusMiddleware はレスポンスのHTTPステータスコードをcollectorに記録するミドルウェアを返す。
func StatusMiddleware(collector MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			collector.RecordHTTPStatus(rec.status)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
