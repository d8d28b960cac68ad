package handler

import (
	"context"
	"net/http"

	"github.com/linguaacademy/academia/internal/dashboard"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	ForLearner(ctx context.Context, userID string) (*dashboard.LearnerDashboard, error)
	ForInstructor(ctx context.Context, userID string) (*dashboard.InstructorDashboard, error)
	ForAdmin(ctx context.Context) (*dashboard.AdminDashboard, error)
}

// DashboardHandler は役割別ダッシュボードのHTTPハンドラー。
// 各エンドポイントはRequireRoleミドルウェアの後に配置する。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Learner は受講者ダッシュボードを返す。
// GET /api/dashboard/learner
func (h *DashboardHandler) Learner(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	data, err := h.service.ForLearner(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// Instructor は講師ダッシュボードを返す。
// GET /api/dashboard/instructor
func (h *DashboardHandler) Instructor(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	data, err := h.service.ForInstructor(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// Admin は管理者ダッシュボードを返す。
// GET /api/dashboard/admin
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ForAdmin(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}
