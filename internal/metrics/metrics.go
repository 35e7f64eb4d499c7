package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// インポートパイプラインのメトリクス
var (
	CellsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_import_cells_total",
			Help: "グリッドセルの処理結果（processed, skipped, failed）",
		},
		[]string{"result"},
	)

	PlacesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_import_places_total",
			Help: "スポットの処理結果（stored, rejected, fetch_failed）",
		},
		[]string{"result"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_upstream_requests_total",
			Help: "上流APIへのリクエスト数",
		},
		[]string{"service", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travel_upstream_request_duration_seconds",
			Help:    "上流APIリクエストの所要時間",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_translations_total",
			Help: "言語ごとの翻訳結果（translated, skipped, exists, failed）",
		},
		[]string{"language", "result"},
	)

	ImageChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_image_checks_total",
			Help: "画像到達性チェックの結果（reachable, unreachable, cached）",
		},
		[]string{"result"},
	)

	AuditDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_audit_deletions_total",
			Help: "メンテナンス処理で削除されたエンティティ数",
		},
		[]string{"kind"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "travel_circuit_breaker_state",
			Help: "サーキットブレーカーの状態（0=closed, 1=half-open, 2=open）",
		},
		[]string{"name"},
	)
)
