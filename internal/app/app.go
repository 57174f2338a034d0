// Package app はアプリケーションの起動とワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/blogman/internal/api"
	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/blog"
	"github.com/hitoshi/blogman/internal/collection"
	"github.com/hitoshi/blogman/internal/config"
	"github.com/hitoshi/blogman/internal/database"
	"github.com/hitoshi/blogman/internal/handler"
	"github.com/hitoshi/blogman/internal/logger"
	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/notify"
	"github.com/hitoshi/blogman/internal/preview"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
	"github.com/hitoshi/blogman/internal/session"
	"github.com/hitoshi/blogman/internal/ui"
	"github.com/hitoshi/blogman/internal/user"
	"github.com/hitoshi/blogman/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// wはログの出力先。クライアントモードではREPLの表示を邪魔しないようstderrを渡す。
func Init(w io.Writer) (*config.Config, error) {
	// 1. 設定を読み込む（ログレベルの決定に必要）
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. ログの初期化
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "3003"
		}
		return runHealthcheck(port)
	}

	// クライアントモードのログはstderrへ（stdoutは対話表示に使う）
	logDest := io.Writer(os.Stdout)
	if cmd == CommandClient {
		logDest = os.Stderr
	}

	cfg, err := Init(logDest)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runClient(cfg, os.Stdin, os.Stdout)
	}
}

// runClient はターミナルクライアントモードで起動する。
// APIクライアント、セッションストア、ブログコレクション、通知、
// ページプレビューをワイヤリングし、対話ループを実行する。
func runClient(cfg *config.Config, in io.Reader, out io.Writer) error {
	// 1. APIクライアント
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	apiClient := api.NewClient(cfg.APIBaseURL, httpClient, slog.Default())

	// 2. セッション永続化と通知
	sessionRepo := repository.NewFileSessionRepo(cfg.SessionFile)
	broadcaster := notify.NewBroadcaster(cfg.NotificationTTL, nil)
	defer broadcaster.Stop()

	// 3. セッションストアとコレクション
	// ログアウト時にコレクションを空にするため、後から束縛するクロージャを渡す
	var manager *collection.Manager
	sessionStore := session.NewStore(apiClient, sessionRepo, broadcaster, func() {
		if manager != nil {
			manager.Clear()
		}
	})
	manager = collection.NewManager(apiClient, sessionStore, broadcaster)

	// 4. ページプレビュー（SSRF防止付き）
	guard := security.NewURLGuard()
	previewFetcher := preview.NewFetcher(guard, cfg.PreviewTimeout, cfg.PreviewMaxSize)

	// 5. 対話ループの起動。Ctrl-Cで終了する
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repl := ui.NewREPL(in, out, sessionStore, manager, broadcaster, previewFetcher)
	return repl.Run(ctx)
}

// runServe は開発サーバーモードで起動する。
// DATABASE_URLが設定されている場合はPostgreSQL、未設定の場合はインメモリの
// ストアを使う。SIGINTまたはSIGTERMでグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストアの初期化
	var (
		userRepo repository.UserStore
		blogRepo repository.BlogStore
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		// コンテナ起動直後はDBがまだ受け付け前のことがあるためリトライする
		if err := database.PingWithRetry(context.Background(), db, 5); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		slog.Info("database connection established")
		userRepo = repository.NewPostgresUserRepo(db)
		blogRepo = repository.NewPostgresBlogRepo(db)
	} else {
		slog.Info("DATABASE_URL not set, using in-memory stores")
		userRepo = repository.NewMemoryUserRepo()
		blogRepo = repository.NewMemoryBlogRepo()
	}

	// トークンはプロセス内でのみ有効
	tokenRepo := repository.NewMemoryTokenRepo()

	// 2. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokenRepo, auth.ServiceConfig{TokenTTL: cfg.TokenTTL})
	userService := user.NewService(userRepo, user.ServiceConfig{BcryptCost: cfg.BcryptCost})
	blogService := blog.NewService(blogRepo, userRepo, security.NewFieldSanitizer())

	// 3. レート制限（設定はreq/min単位、rate.Limitはreq/sec単位）
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		LoginRate:       rate.Limit(float64(cfg.RateLimitLogin) / 60.0),
		LoginBurst:      cfg.RateLimitLogin,
		CleanupInterval: 5 * time.Minute,
	})
	defer rateLimiter.Stop()

	// 4. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		AuthVerifier:      authService,

		Metrics:  collector,
		Gatherer: registry,

		LoginService: authService,
		BlogService:  blogService,
		UserService:  userService,

		EnableTestingAPI: cfg.EnableTestingAPI,
		Users:            userRepo,
		Blogs:            blogRepo,
		Tokens:           tokenRepo,
	})

	// 6. 期限切れトークンの定期掃除
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	cleanupJob := cleanup.NewCleanupJob(tokenRepo, slog.Default())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-jobCtx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(jobCtx); err != nil {
					slog.Error("token cleanup failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Bool("testing_api", cfg.EnableTestingAPI),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck は開発サーバーのヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
