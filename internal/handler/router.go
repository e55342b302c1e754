package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/reelscope/internal/metrics"
	"github.com/hitoshi/reelscope/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 運用
	HealthChecker   HealthChecker
	Metrics         metrics.MetricsCollector // nilの場合はステータスを記録しない
	MetricsGatherer prometheus.Gatherer      // nilの場合は/metricsを公開しない

	// クリエイター集約
	CreatorService CreatorServiceInterface
	RequestTimeout time.Duration
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → (API) OptionalSession → Logging → RateLimit
//
// /health と /metrics はセッションとレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	creatorHandler := NewCreatorHandler(deps.CreatorService, deps.RequestTimeout)

	// --- API ---
	// ログイン任意。セッションがあれば動画件数上限に反映する
	r.Group(func(r chi.Router) {
		if deps.Metrics != nil {
			r.Use(metrics.StatusMiddleware(deps.Metrics))
		}
		r.Use(middleware.NewRequestIDMiddleware())
		if deps.SessionFinder != nil {
			r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))
		}
		r.Use(middleware.NewLoggingMiddleware(logger))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Get("/api/creators/{platform}/{username}", creatorHandler.GetCreator)
	})

	return r
}
