package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	AuthVerifier      middleware.TokenVerifier

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer // nilの場合は /metrics を公開しない

	// サービス
	LoginService LoginServiceInterface
	BlogService  BlogServiceInterface
	UserService  UserServiceInterface

	// テストハーネス
	EnableTestingAPI bool
	Users            StoreResetter
	Blogs            StoreResetter
	Tokens           StoreResetter
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// /api/login には専用のレート制限、/api/blogs には一般レート制限を適用する。
// GET /api/blogs と PUT /api/blogs/{id} は認証不要（一覧といいねは誰でもできる）。
// POST /api/blogs と DELETE /api/blogs/{id} はBearerトークンを要求する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	loginHandler := NewLoginHandler(deps.LoginService, deps.Metrics)
	blogHandler := NewBlogHandler(deps.BlogService, deps.Metrics)
	userHandler := NewUserHandler(deps.UserService)

	// 稼働確認用エンドポイント
	r.Get("/health", handleHealth)

	if deps.Gatherer != nil {
		r.Mount("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		// ログインはブルートフォース対策の専用レート制限付き
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", loginHandler.Login)

		r.Post("/users", userHandler.Register)

		r.Route("/blogs", func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/", blogHandler.List)
			r.Put("/{id}", blogHandler.Update)

			r.Group(func(r chi.Router) {
				r.Use(middleware.NewAuthMiddleware(deps.AuthVerifier))
				r.Post("/", blogHandler.Create)
				r.Delete("/{id}", blogHandler.Delete)
			})
		})

		if deps.EnableTestingAPI {
			testingHandler := NewTestingHandler(deps.Users, deps.Blogs, deps.Tokens)
			r.Post("/testing/reset", testingHandler.Reset)
		}
	})

	return r
}

// handleHealth は稼働確認のレスポンスを返す。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
