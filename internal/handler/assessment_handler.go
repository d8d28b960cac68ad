package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// AssessmentServiceInterface は評価ハンドラーが必要とするサービスインターフェース。
type AssessmentServiceInterface interface {
	CreateAssessment(ctx context.Context, courseID, name, description string, date time.Time) (*model.Assessment, error)
	RecordResult(ctx context.Context, assessmentID, userID string, score float64, feedback string) (*model.AssessmentResult, error)
	ListMyResults(ctx context.Context, userID string) ([]repository.ResultWithAssessment, error)
}

// AssessmentHandler は評価・評価結果のHTTPハンドラー。
type AssessmentHandler struct {
	service AssessmentServiceInterface
}

// NewAssessmentHandler はAssessmentHandlerを生成する。
func NewAssessmentHandler(service AssessmentServiceInterface) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// createAssessmentRequest は評価作成リクエストのボディ。
type createAssessmentRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// recordResultRequest は評価結果記録リクエストのボディ。
type recordResultRequest struct {
	UserID   string  `json:"userId"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// CreateAssessment は講師によるコース配下の評価作成を処理する。
// POST /api/courses/{id}/assessments
func (h *AssessmentHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	created, err := h.service.CreateAssessment(r.Context(), courseID, req.Name, req.Description, req.Date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          created.ID,
		"courseId":    created.CourseID,
		"name":        created.Name,
		"description": created.Description,
		"date":        created.Date,
	})
}

// RecordResult は講師による評価結果の記録を処理する。
// POST /api/assessments/{id}/results
func (h *AssessmentHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	assessmentID := chi.URLParam(r, "id")

	var req recordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	result, err := h.service.RecordResult(r.Context(), assessmentID, req.UserID, req.Score, req.Feedback)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           result.ID,
		"assessmentId": result.AssessmentID,
		"userId":       result.UserID,
		"score":        result.Score,
		"feedback":     result.Feedback,
	})
}

// ListMyResults は受講者自身の評価結果一覧を返す。
// GET /api/results
func (h *AssessmentHandler) ListMyResults(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	results, err := h.service.ListMyResults(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]map[string]any, len(results))
	for i, res := range results {
		items[i] = map[string]any{
			"id":             res.ID,
			"assessmentName": res.AssessmentName,
			"assessmentDate": res.AssessmentDate,
			"courseName":     res.CourseName,
			"score":          res.Score,
			"feedback":       res.Feedback,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}
