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

	"github.com/linguaacademy/academia/internal/assessment"
	"github.com/linguaacademy/academia/internal/auth"
	"github.com/linguaacademy/academia/internal/billing"
	"github.com/linguaacademy/academia/internal/chat"
	"github.com/linguaacademy/academia/internal/config"
	"github.com/linguaacademy/academia/internal/content"
	"github.com/linguaacademy/academia/internal/course"
	"github.com/linguaacademy/academia/internal/dashboard"
	"github.com/linguaacademy/academia/internal/database"
	"github.com/linguaacademy/academia/internal/handler"
	"github.com/linguaacademy/academia/internal/logger"
	"github.com/linguaacademy/academia/internal/mailer"
	"github.com/linguaacademy/academia/internal/metrics"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/repository"
	"github.com/linguaacademy/academia/internal/security"
	"github.com/linguaacademy/academia/internal/ticket"
	"github.com/linguaacademy/academia/internal/worker/cleanup"
	"github.com/linguaacademy/academia/internal/worker/overdue"
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
		slog.String("base_url", cfg.BaseURL),
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
	sessionRepo := repository.NewPostgresSessionRepo(db)
	activityRepo := repository.NewPostgresActivityLogRepo(db)
	courseRepo := repository.NewPostgresCourseRepo(db)
	enrollmentRepo := repository.NewPostgresEnrollmentRepo(db)
	classSessionRepo := repository.NewPostgresClassSessionRepo(db)
	contentRepo := repository.NewPostgresContentRepo(db)
	assessmentRepo := repository.NewPostgresAssessmentRepo(db)
	messageRepo := repository.NewPostgresMessageRepo(db)
	receiptRepo := repository.NewPostgresReceiptRepo(db)
	ticketRepo := repository.NewPostgresTicketRepo(db)

	// 3. セキュリティサービスの初期化
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewTextSanitizer()

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, sessionRepo, activityRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	chatService := chat.NewService(messageRepo, userRepo, sanitizer)

	courseService := course.NewService(
		courseRepo, enrollmentRepo, classSessionRepo,
		contentRepo, assessmentRepo, activityRepo,
	)

	linkInspector := content.NewLinkInspector(urlGuard, cfg.LinkTimeout, cfg.LinkMaxSize)
	contentService := content.NewService(
		courseRepo, contentRepo, classSessionRepo, linkInspector, sanitizer,
	)

	assessmentService := assessment.NewService(assessmentRepo, courseRepo, userRepo)

	mailSender := mailer.New(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
	billingService := billing.NewService(receiptRepo, userRepo, activityRepo, mailSender, collector)

	ticketService := ticket.NewService(ticketRepo, sanitizer)

	dashboardService := dashboard.NewService(
		enrollmentRepo, classSessionRepo, assessmentRepo,
		receiptRepo, contentRepo, userRepo, courseRepo,
	)

	// 6. レートリミッタの初期化（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.ChatSendRate = rate.Limit(float64(cfg.RateLimitChatSend) / 60.0)
	rateLimiterCfg.ChatSendBurst = cfg.RateLimitChatSend
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		HealthChecker:     db,
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Metrics:        collector,
		MetricsHandler: metrics.SetupMetricsRoute(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		UserService: authService,

		ChatService: chatService,

		CourseService:     courseService,
		ContentService:    contentService,
		AssessmentService: assessmentService,

		BillingService: billingService,
		TicketService:  ticketService,

		DashboardService: dashboardService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
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
// DB接続を開き、クリーンアップジョブと期限超過レビュージョブを起動する。
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

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	activityRepo := repository.NewPostgresActivityLogRepo(db)
	receiptRepo := repository.NewPostgresReceiptRepo(db)

	// 3. 期限超過レビュージョブの初期化
	// workerは/metricsを公開しないため、メール計測はnil（記録なし）で動かす。
	mailSender := mailer.New(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
	billingService := billing.NewService(receiptRepo, userRepo, activityRepo, mailSender, nil)
	reviewJob := overdue.NewReviewJob(billingService, slog.Default())

	// 4. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, activityRepo, slog.Default())
	cleanupJob.RetentionDays = cfg.LogRetentionDays

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
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Duration("review_interval", cfg.ReceiptReviewInterval),
		slog.Int("retention_days", cfg.LogRetentionDays),
	)

	// クリーンアップジョブをバックグラウンドで起動
	go cleanupJob.Start(ctx, cfg.CleanupInterval)

	// 期限超過レビュージョブをメインgoroutineで実行（ブロッキング）
	reviewJob.Start(ctx, cfg.ReceiptReviewInterval)

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
