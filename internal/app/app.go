package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/jwtauth/internal/auth"
	"github.com/hitoshi/jwtauth/internal/config"
	"github.com/hitoshi/jwtauth/internal/database"
	"github.com/hitoshi/jwtauth/internal/handler"
	"github.com/hitoshi/jwtauth/internal/logger"
	"github.com/hitoshi/jwtauth/internal/metrics"
	"github.com/hitoshi/jwtauth/internal/repository"
	"github.com/hitoshi/jwtauth/internal/user"
	"github.com/hitoshi/jwtauth/internal/web"
)

// shutdownTimeout はグレースフルシャットダウンの待機上限。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, nil)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再構成
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = config.DefaultServerPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	if cfg.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET is not set; using the built-in development secret")
	}

	// 1. DB接続とリポジトリの初期化
	db, userRepo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. ルーターの構築
	var reg *prometheus.Registry
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	router := buildRouter(cfg, db, userRepo, reg)

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// openStore はDB接続を開き、方言に合ったユーザーリポジトリを返す。
// AutoMigrateが有効な場合は接続前にマイグレーションを適用する。
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, repository.UserRepository, error) {
	if cfg.AutoMigrate {
		if err := runMigrate(cfg); err != nil {
			return nil, nil, err
		}
	}

	db, dialect, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established", slog.String("dialect", string(dialect)))

	var userRepo repository.UserRepository
	switch dialect {
	case database.DialectSQLite:
		userRepo = repository.NewSQLiteUserRepo(db)
	default:
		userRepo = repository.NewPostgresUserRepo(db)
	}

	return db, userRepo, nil
}

// buildRouter はサービスとハンドラーをワイヤリングしたルーターを返す。
// regがnilの場合はメトリクスを収集しない。
func buildRouter(cfg *config.Config, db handler.Pinger, userRepo repository.UserRepository, reg *prometheus.Registry) http.Handler {
	var collector metrics.MetricsCollector = metrics.Nop{}
	var gatherer prometheus.Gatherer
	if reg != nil {
		collector = metrics.NewCollector(reg)
		gatherer = reg
	}

	tokens := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authService := auth.NewService(userRepo, auth.NewPasswordHasher(), tokens, collector)
	userService := user.NewService(userRepo)

	return handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     tokens,
		Metrics:           collector,
		Gatherer:          gatherer,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		AuthService:       authService,
		UserService:       userService,
		DB:                db,
		StaticFiles:       web.Static(),
		Logger:            slog.Default(),
	})
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
