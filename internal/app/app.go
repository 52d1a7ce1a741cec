// Package app はアプリケーションの起動とワイヤリングを提供する。
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

	"github.com/hitoshi/epyson/internal/auth"
	"github.com/hitoshi/epyson/internal/comment"
	"github.com/hitoshi/epyson/internal/config"
	"github.com/hitoshi/epyson/internal/database"
	"github.com/hitoshi/epyson/internal/feed"
	"github.com/hitoshi/epyson/internal/handler"
	"github.com/hitoshi/epyson/internal/logger"
	"github.com/hitoshi/epyson/internal/metrics"
	"github.com/hitoshi/epyson/internal/middleware"
	"github.com/hitoshi/epyson/internal/notification"
	"github.com/hitoshi/epyson/internal/notify"
	"github.com/hitoshi/epyson/internal/post"
	"github.com/hitoshi/epyson/internal/repository"
	"github.com/hitoshi/epyson/internal/security"
	"github.com/hitoshi/epyson/internal/subscription"
	"github.com/hitoshi/epyson/internal/topic"
	"github.com/hitoshi/epyson/internal/user"
	"github.com/hitoshi/epyson/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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
		slog.String("client_domain", cfg.ClientDomain),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
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
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	feedRepo := repository.NewPostgresFeedRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	topicRepo := repository.NewPostgresTopicRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティ・外部コラボレーターの初期化
	sanitizer := security.NewContentSanitizer()
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var pinger post.IndexPinger
	if cfg.IndexNowKey != "" {
		pinger = notify.NewIndexNowClient(httpClient, slog.Default(), cfg.IndexNowKey, cfg.ClientDomain)
	}

	var mailer auth.Mailer
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
			cfg.NoreplyEmail, cfg.SiteName, cfg.ClientDomain,
		)
	}

	reporter := notify.NewTelegramClient(httpClient, slog.Default(), cfg.TelegramBotToken, cfg.TelegramChatID)

	// 5. ドメインサービスの初期化
	tokenManager := auth.NewTokenManager(
		cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
		cfg.AccessTokenAge, cfg.RefreshTokenAge,
	)
	authService := auth.NewService(userRepo, tokenRepo, tokenManager, mailer, auth.ServiceConfig{
		VerificationTokenTTL: cfg.VerificationTokenTTL,
	})

	feedService := feed.NewService(feedRepo, cfg.PopularWindow, collector)
	userService := user.NewService(userRepo)
	topicService := topic.NewService(topicRepo)
	postService := post.NewService(postRepo, notificationRepo, sanitizer, pinger, collector, slog.Default(), cfg.ClientDomain)
	commentService := comment.NewService(commentRepo, postRepo, notificationRepo, sanitizer, collector, slog.Default())
	subService := subscription.NewService(subRepo, userRepo, topicRepo, notificationRepo, collector)
	notificationService := notification.NewService(notificationRepo, slog.Default())

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.WriteRate = rate.Limit(float64(cfg.RateLimitWrite) / 60.0)
	rateLimiterCfg.WriteBurst = cfg.RateLimitWrite
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     tokenManager,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusRecorder:    collector,
		MaxPageSize:       cfg.MaxPageSize,

		DB:             db,
		MetricsHandler: metrics.SetupMetricsRoute(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure:    cfg.CookieSecure,
			CookieDomain:    cfg.CookieDomain,
			RefreshTokenTTL: cfg.RefreshTokenAge,
		},

		FeedService:         feedService,
		UserService:         userService,
		TopicService:        topicService,
		PostService:         postService,
		CommentService:      commentService,
		SubscriptionService: subService,
		NotificationService: notificationService,

		ComplaintReporter: reporter,
		ContentMetrics:    collector,
	}

	router := handler.NewRouter(deps)

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

// runWorker はワーカーモードで起動する。
// 期限切れメール確認トークンのクリーンアップジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	tokenRepo := repository.NewPostgresTokenRepo(db)
	cleanupJob := cleanup.NewCleanupJob(tokenRepo, slog.Default())
	cleanupJob.TokenTTL = cfg.VerificationTokenTTL
	cleanupJob.Interval = cfg.CleanupInterval

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("token_ttl", cleanupJob.TokenTTL),
		slog.Duration("interval", cleanupJob.Interval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
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
