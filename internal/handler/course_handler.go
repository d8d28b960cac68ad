package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/course"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// CourseServiceInterface はコースハンドラーが必要とするサービスインターフェース。
type CourseServiceInterface interface {
	Catalog(ctx context.Context) ([]course.LanguageGroup, error)
	Detail(ctx context.Context, courseID, viewerUserID string) (*course.CourseDetail, error)
	Enroll(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	CreateCourse(ctx context.Context, name string, level model.CourseLevel, modality model.CourseModality) (*model.Course, error)
}

// EnrollmentMetrics は受講登録イベントのメトリクス記録インターフェース。
type EnrollmentMetrics interface {
	RecordEnrollment()
}

// CourseHandler はコースカタログ・受講登録のHTTPハンドラー。
type CourseHandler struct {
	service CourseServiceInterface
	metrics EnrollmentMetrics
}

// NewCourseHandler はCourseHandlerを生成する。
func NewCourseHandler(service CourseServiceInterface, metrics EnrollmentMetrics) *CourseHandler {
	return &CourseHandler{
		service: service,
		metrics: metrics,
	}
}

// courseResponse はコース情報のAPIレスポンス。
type courseResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Level    string `json:"level"`
	Modality string `json:"modality"`
	Status   string `json:"status"`
}

// createCourseRequest はコース作成リクエストのボディ。
type createCourseRequest struct {
	Name     string `json:"name"`
	Level    string `json:"level"`
	Modality string `json:"modality"`
}

// Catalog は言語別にグルーピングされた公開中コースの一覧を返す。
// GET /api/courses
func (h *CourseHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Catalog(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	type groupResponse struct {
		Language string           `json:"language"`
		Courses  []courseResponse `json:"courses"`
	}

	result := make([]groupResponse, len(groups))
	for i, g := range groups {
		courses := make([]courseResponse, len(g.Courses))
		for j, c := range g.Courses {
			courses[j] = toCourseResponse(c)
		}
		result[i] = groupResponse{Language: g.Language, Courses: courses}
	}

	writeJSON(w, http.StatusOK, map[string]any{"languages": result})
}

// Detail はコース詳細（授業回・教材・評価・受講状態）を返す。
// 未認証でも閲覧できるが、enrolledは認証済みの場合のみ意味を持つ。
// GET /api/courses/{id}
func (h *CourseHandler) Detail(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var viewerUserID string
	if session := middleware.OptionalSessionFromContext(r.Context()); session != nil {
		viewerUserID = session.UserID
	}

	detail, err := h.service.Detail(r.Context(), courseID, viewerUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseDetailResponse(detail))
}

// Enroll はコースへの受講登録を処理する。
// POST /api/courses/{id}/enroll
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	courseID := chi.URLParam(r, "id")

	enrollment, err := h.service.Enroll(r.Context(), session.UserID, courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordEnrollment()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         enrollment.ID,
		"courseId":   enrollment.CourseID,
		"enrolledAt": enrollment.EnrolledAt,
		"status":     enrollment.Status,
	})
}

// CreateCourse は管理者によるコース作成を処理する。
// POST /api/admin/courses
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	created, err := h.service.CreateCourse(r.Context(), req.Name, model.CourseLevel(req.Level), model.CourseModality(req.Modality))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCourseResponse(created))
}

// toCourseResponse はドメインのCourseをAPIレスポンスに変換する。
func toCourseResponse(c *model.Course) courseResponse {
	return courseResponse{
		ID:       c.ID,
		Name:     c.Name,
		Language: c.Language(),
		Level:    string(c.Level),
		Modality: string(c.Modality),
		Status:   string(c.Status),
	}
}

// toCourseDetailResponse はコース詳細をAPIレスポンスに変換する。
func toCourseDetailResponse(detail *course.CourseDetail) map[string]any {
	classes := make([]map[string]any, len(detail.ClassSessions))
	for i, cs := range detail.ClassSessions {
		classes[i] = map[string]any{
			"id":          cs.ID,
			"startsAt":    cs.StartsAt,
			"kind":        cs.Kind,
			"meetingUrl":  cs.MeetingURL,
			"materialUrl": cs.MaterialURL,
		}
	}

	contents := make([]map[string]any, len(detail.Contents))
	for i, c := range detail.Contents {
		contents[i] = map[string]any{
			"id":      c.ID,
			"title":   c.Title,
			"kind":    c.Kind,
			"fileUrl": c.FileURL,
		}
	}

	assessments := make([]map[string]any, len(detail.Assessments))
	for i, a := range detail.Assessments {
		assessments[i] = map[string]any{
			"id":          a.ID,
			"name":        a.Name,
			"description": a.Description,
			"date":        a.Date,
		}
	}

	return map[string]any{
		"course":        toCourseResponse(detail.Course),
		"classSessions": classes,
		"contents":      contents,
		"assessments":   assessments,
		"enrolled":      detail.Enrolled,
	}
}
