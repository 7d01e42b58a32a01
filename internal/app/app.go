// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
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

	"github.com/hitoshi/adstudio/internal/auth"
	"github.com/hitoshi/adstudio/internal/config"
	"github.com/hitoshi/adstudio/internal/content"
	"github.com/hitoshi/adstudio/internal/database"
	"github.com/hitoshi/adstudio/internal/generate"
	"github.com/hitoshi/adstudio/internal/handler"
	"github.com/hitoshi/adstudio/internal/imagestore"
	"github.com/hitoshi/adstudio/internal/logger"
	"github.com/hitoshi/adstudio/internal/metrics"
	"github.com/hitoshi/adstudio/internal/repository"
	"github.com/hitoshi/adstudio/internal/security"
	"github.com/hitoshi/adstudio/internal/worker/cleanup"
)

// dbConnectTimeout は起動時のDB疎通確認のタイムアウト。
const dbConnectTimeout = 10 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数を読み込み、ログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		slog.Warn("invalid LOG_LEVEL, falling back to info", slog.String("error", err.Error()))
	}

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
			port = "8080"
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
		slog.Bool("ai_enabled", cfg.AIEnabled()),
		slog.Bool("archive_enabled", cfg.S3.Enabled()),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Connect(context.Background(), cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	contentRepo := repository.NewPostgresContentRepo(db)

	// 4. 外部通信クライアントの初期化
	ssrfGuard := security.NewSSRFGuard()
	if cfg.UpstreamAllowPrivate {
		slog.Warn("SSRF protection disabled for upstream clients")
	}
	identityClient := auth.NewIdentityClient(
		security.NewUpstreamClient(ssrfGuard, cfg.IdentityTimeout, cfg.UpstreamAllowPrivate),
		slog.Default(),
		cfg.IdentitySessionURL,
	)
	aiClient := generate.NewOpenAIClient(
		security.NewUpstreamClient(ssrfGuard, cfg.AITimeout, cfg.UpstreamAllowPrivate),
		slog.Default(),
		generate.OpenAIConfig{
			APIKey:     cfg.AIAPIKey,
			BaseURL:    cfg.AIBaseURL,
			TextModel:  cfg.AITextModel,
			ImageModel: cfg.AIImageModel,
		},
	)
	if !cfg.AIEnabled() {
		slog.Warn("AI_API_KEY is not set; text generation will fail and flyers will have no image")
	}

	archive, err := newArchive(cfg.S3)
	if err != nil {
		return err
	}

	// 5. ドメインサービスの初期化
	sessionStore := auth.NewSessionStore(sessionRepo, cfg.SessionTTL, time.Now)
	authService := auth.NewService(identityClient, userRepo, sessionStore,
		auth.WithURLValidator(ssrfGuard),
		auth.WithMetrics(collector),
	)
	contentService := content.NewService(content.Deps{
		Generator: generate.NewGenerator(aiClient, collector, slog.Default()),
		Repo:      contentRepo,
		Markup:    security.NewMarkupDetector(),
		Archive:   archive,
		Metrics:   collector,
	})

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:         slog.Default(),
		TokenValidator: sessionStore,
		AllowedOrigins: cfg.AllowedOrigins(),
		StatusRecorder: collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: int(sessionStore.TTL().Seconds()),
		},

		ContentService: contentService,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	// 期限切れセッションの定期削除
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	if cfg.SessionCleanupInterval > 0 {
		cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), time.Now)
		go cleanupJob.Start(jobCtx, cfg.SessionCleanupInterval)
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newArchive はS3設定がある場合のみオブジェクトストレージへのアーカイブを有効にする。
func newArchive(cfg config.S3Config) (imagestore.Archive, error) {
	if !cfg.Enabled() {
		return imagestore.Noop{}, nil
	}

	archive, err := imagestore.NewMinioArchive(imagestore.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("flyer image archive enabled",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("bucket", cfg.Bucket),
	)
	return archive, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
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
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
