package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jwtauth/internal/metrics"
	"github.com/hitoshi/jwtauth/internal/middleware"
	"github.com/hitoshi/jwtauth/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	Metrics           metrics.MetricsCollector
	CORSAllowedOrigin string

	// Gatherer がnilの場合は/metricsを公開しない
	Gatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// ヘルスチェック
	DB Pinger

	// 静的ページ
	StaticFiles fs.FS

	// Logger がnilの場合はslog.Default()を使う
	Logger *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → (Auth)
//
// Authミドルウェアは保護された/apiルートのグループにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 未定義のルートとメソッドはどちらも404の統一フォーマットで返す
	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 運用エンドポイント ---
	if deps.DB != nil {
		r.Get("/health", NewHealthHandler(deps.DB).Health)
	}
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 静的ページ ---
	if deps.StaticFiles != nil {
		staticHandler := NewStaticHandler(deps.StaticFiles)
		r.Get("/", staticHandler.Index)
		r.Get("/dashboard", staticHandler.Dashboard)
		r.Method(http.MethodGet, "/assets/*", staticHandler.Assets())
	}

	r.Route("/api", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, collector))

			r.Get("/dashboard", userHandler.Dashboard)
			r.Get("/verify-token", authHandler.VerifyToken)
			r.Post("/logout", authHandler.Logout)
		})
	})

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
}
