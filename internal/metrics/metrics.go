// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 生成結果のラベル値。
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// 外部呼び出し先のラベル値。
const (
	UpstreamIdentity = "identity"
	UpstreamAIText   = "ai_text"
	UpstreamAIImage  = "ai_image"
)

// Recorder はメトリクス記録のインターフェース。
// サービス層、生成クライアント、ミドルウェアから利用する。
type Recorder interface {
	RecordGeneration(contentType, outcome string)
	RecordImageFallback(reason string)
	RecordUpstreamLatency(upstream string, duration time.Duration)
	RecordSessionCreated()
	RecordContentDeleted()
	RecordArchive(outcome string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	generations     *prometheus.CounterVec
	imageFallbacks  *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	sessionsCreated prometheus.Counter
	contentDeleted  prometheus.Counter
	archives        *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector はCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adstudio_generations_total",
			Help: "コンテンツ種別・結果別のテキスト生成数",
		}, []string{"content_type", "outcome"}),
		imageFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adstudio_image_fallback_total",
			Help: "画像生成に失敗し画像なしで応答した回数",
		}, []string{"reason"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adstudio_upstream_latency_seconds",
			Help:    "外部サービス呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"upstream"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adstudio_sessions_created_total",
			Help: "発行したセッションの合計数",
		}),
		contentDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adstudio_content_deleted_total",
			Help: "削除された生成コンテンツの合計数",
		}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adstudio_image_archive_total",
			Help: "チラシ画像のオブジェクトストレージ保存結果",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adstudio_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.generations,
		c.imageFallbacks,
		c.upstreamLatency,
		c.sessionsCreated,
		c.contentDeleted,
		c.archives,
		c.httpStatus,
	)

	return c
}

func (c *Collector) RecordGeneration(contentType, outcome string) {
	c.generations.WithLabelValues(contentType, outcome).Inc()
}

func (c *Collector) RecordImageFallback(reason string) {
	c.imageFallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordUpstreamLatency(upstream string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

func (c *Collector) RecordContentDeleted() {
	c.contentDeleted.Inc()
}

func (c *Collector) RecordArchive(outcome string) {
	c.archives.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ Recorder = (*Collector)(nil)
