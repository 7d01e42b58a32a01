package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/adstudio/internal/middleware"
)

// apiRootMessage はAPIルートが返す固定メッセージ。
const apiRootMessage = "AI Content & Marketing Studio API"

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	AllowedOrigins []string
	StatusRecorder middleware.StatusRecorder

	// 運用エンドポイント（nilの場合は登録しない）
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// コンテンツ
	ContentService ContentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → Metrics → CORS → (Session)
//
// SessionMiddlewareはユーザー単位のルートにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	contentHandler := NewContentHandler(deps.ContentService)

	r.Route("/api", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, messageResponse{Message: apiRootMessage})
		})
		r.Post("/auth/session", authHandler.CreateSession)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.TokenValidator))

			r.Get("/auth/profile", authHandler.Profile)

			r.Route("/content", func(r chi.Router) {
				r.Post("/generate", contentHandler.Generate)
				r.Get("/history", contentHandler.History)
				r.Delete("/{id}", contentHandler.Delete)
			})
		})
	})

	return r
}
