package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/content"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// ContentServiceInterface は教材ハンドラーが必要とするサービスインターフェース。
type ContentServiceInterface interface {
	AddContent(ctx context.Context, input content.AddContentInput) (*model.CourseContent, error)
	AddClassSession(ctx context.Context, input content.AddClassSessionInput) (*model.ClassSession, error)
}

// ContentHandler は教材・授業回登録のHTTPハンドラー。講師専用。
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

// addContentRequest は教材登録リクエストのボディ。
type addContentRequest struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	FileURL string `json:"fileUrl"`
}

// addClassSessionRequest は授業回登録リクエストのボディ。
type addClassSessionRequest struct {
	StartsAt    time.Time `json:"startsAt"`
	Kind        string    `json:"kind"`
	MeetingURL  string    `json:"meetingUrl"`
	MaterialURL string    `json:"materialUrl"`
}

// AddContent は講師によるコースへの教材登録を処理する。
// POST /api/courses/{id}/contents
func (h *ContentHandler) AddContent(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	courseID := chi.URLParam(r, "id")

	var req addContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	created, err := h.service.AddContent(r.Context(), content.AddContentInput{
		CourseID:   courseID,
		Title:      req.Title,
		Kind:       model.ContentKind(req.Kind),
		FileURL:    req.FileURL,
		UploadedBy: session.UserID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      created.ID,
		"title":   created.Title,
		"kind":    created.Kind,
		"fileUrl": created.FileURL,
	})
}

// AddClassSession は講師によるコースへの授業回登録を処理する。
// POST /api/courses/{id}/classes
func (h *ContentHandler) AddClassSession(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req addClassSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	created, err := h.service.AddClassSession(r.Context(), content.AddClassSessionInput{
		CourseID:    courseID,
		StartsAt:    req.StartsAt,
		Kind:        model.ClassSessionKind(req.Kind),
		MeetingURL:  req.MeetingURL,
		MaterialURL: req.MaterialURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          created.ID,
		"startsAt":    created.StartsAt,
		"kind":        created.Kind,
		"meetingUrl":  created.MeetingURL,
		"materialUrl": created.MaterialURL,
	})
}
