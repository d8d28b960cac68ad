package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/metrics"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// HealthChecker はヘルスチェック時の依存先疎通確認インターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler

	// 認証・アカウント管理
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	UserService UserAdminServiceInterface

	// チャット
	ChatService ChatServiceInterface

	// コース・教材・評価
	CourseService     CourseServiceInterface
	ContentService    ContentServiceInterface
	AssessmentService AssessmentServiceInterface

	// 請求・サポート
	BillingService BillingServiceInterface
	TicketService  TicketServiceInterface

	// ダッシュボード
	DashboardService DashboardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → CSRF → (Session|OptionalSession|ChatSession) → RateLimit
//
// チャットルートは固定の {success:false, error:"unauthorized"} 契約のため、
// 専用のセッションミドルウェアを通す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default(), deps.Metrics))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	userHandler := NewUserHandler(deps.UserService)
	chatHandler := NewChatHandler(deps.ChatService, deps.Metrics)
	courseHandler := NewCourseHandler(deps.CourseService, deps.Metrics)
	contentHandler := NewContentHandler(deps.ContentService)
	assessmentHandler := NewAssessmentHandler(deps.AssessmentService)
	billingHandler := NewBillingHandler(deps.BillingService)
	ticketHandler := NewTicketHandler(deps.TicketService, deps.Metrics)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)

	sessionMw := middleware.NewSessionMiddleware(deps.SessionFinder)
	optionalSessionMw := middleware.NewOptionalSessionMiddleware(deps.SessionFinder)
	chatSessionMw := middleware.NewChatSessionMiddleware(deps.SessionFinder)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(sessionMw).Get("/me", authHandler.Me)
	})

	// コースカタログは未認証でも閲覧できる（受講状態はセッションがあれば反映）
	r.Group(func(r chi.Router) {
		r.Use(optionalSessionMw)

		r.Get("/api/courses", courseHandler.Catalog)
		r.Get("/api/courses/{id}", courseHandler.Detail)

		// サポート問い合わせは未ログインでも受け付ける（連絡先必須）
		r.Post("/api/tickets", ticketHandler.Create)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(sessionMw)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 受講登録
		r.Post("/api/courses/{id}/enroll", courseHandler.Enroll)

		// 講師: 教材・授業回・評価の登録
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireRoleMiddleware(model.RoleInstructor, model.RoleAdministrator))

			r.Post("/api/courses/{id}/contents", contentHandler.AddContent)
			r.Post("/api/courses/{id}/classes", contentHandler.AddClassSession)
			r.Post("/api/courses/{id}/assessments", assessmentHandler.CreateAssessment)
			r.Post("/api/assessments/{id}/results", assessmentHandler.RecordResult)
		})

		// 本人向けの一覧
		r.Get("/api/results", assessmentHandler.ListMyResults)
		r.Get("/api/receipts", billingHandler.ListMine)
		r.Get("/api/tickets", ticketHandler.ListMine)
		r.Get("/api/tickets/{id}", ticketHandler.Get)

		// 役割別ダッシュボード
		r.Route("/api/dashboard", func(r chi.Router) {
			r.With(middleware.NewRequireRoleMiddleware(model.RoleLearner)).Get("/learner", dashboardHandler.Learner)
			r.With(middleware.NewRequireRoleMiddleware(model.RoleInstructor)).Get("/instructor", dashboardHandler.Instructor)
			r.With(middleware.NewRequireRoleMiddleware(model.RoleAdministrator)).Get("/admin", dashboardHandler.Admin)
		})

		// 管理者専用
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireRoleMiddleware(model.RoleAdministrator))

			r.Post("/api/admin/users", userHandler.Provision)
			r.Patch("/api/admin/users/{id}/status", userHandler.UpdateStatus)
			r.Post("/api/admin/courses", courseHandler.CreateCourse)
			r.Post("/api/admin/receipts", billingHandler.IssueReceipt)
			r.Post("/api/admin/receipts/{id}/paid", billingHandler.MarkPaid)
		})
	})

	// --- チャットルート（固定のsuccess契約） ---
	r.Route("/api/chat", func(r chi.Router) {
		r.Use(chatSessionMw)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 送信には専用レート制限を追加
		r.With(deps.RateLimiter.ChatSendMiddleware()).Post("/messages", chatHandler.Send)

		r.Get("/messages/{userID}", chatHandler.FetchNew)
		r.Get("/history/{userID}", chatHandler.History)
		r.Get("/conversations", chatHandler.ListConversations)
	})

	return r
}

// newHealthHandler は生存確認エンドポイントのハンドラーを返す。
// checkerが設定されている場合はDB疎通まで確認する。
// GET /health
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
