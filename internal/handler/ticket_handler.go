package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/ticket"
)

// TicketServiceInterface はチケットハンドラーが必要とするサービスインターフェース。
type TicketServiceInterface interface {
	Create(ctx context.Context, input ticket.CreateInput) (*model.SupportTicket, error)
	ListMine(ctx context.Context, userID string) ([]*model.SupportTicket, error)
	Get(ctx context.Context, ticketID, viewerUserID string) (*model.SupportTicket, error)
}

// TicketMetrics はチケット作成イベントのメトリクス記録インターフェース。
type TicketMetrics interface {
	RecordTicketCreated()
}

// TicketHandler はサポート問い合わせのHTTPハンドラー。
type TicketHandler struct {
	service TicketServiceInterface
	metrics TicketMetrics
}

// NewTicketHandler はTicketHandlerを生成する。
func NewTicketHandler(service TicketServiceInterface, metrics TicketMetrics) *TicketHandler {
	return &TicketHandler{
		service: service,
		metrics: metrics,
	}
}

// createTicketRequest はチケット作成リクエストのボディ。
// 未認証の問い合わせではcontactName/contactEmailが必須。
type createTicketRequest struct {
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	Subject      string `json:"subject"`
	Description  string `json:"description"`
}

// ticketResponse はチケット情報のAPIレスポンス。
type ticketResponse struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// Create はサポートチケットの作成を処理する。
// セッションがあれば本人所有、なければ連絡先必須の匿名チケットになる。
// POST /api/tickets
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	var userID string
	if session := middleware.OptionalSessionFromContext(r.Context()); session != nil {
		userID = session.UserID
	}

	created, err := h.service.Create(r.Context(), ticket.CreateInput{
		UserID:       userID,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Subject:      req.Subject,
		Description:  req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTicketCreated()
	}

	writeJSON(w, http.StatusCreated, toTicketResponse(created))
}

// ListMine はユーザー自身のチケット一覧を返す。
// GET /api/tickets
func (h *TicketHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	tickets, err := h.service.ListMine(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		result[i] = toTicketResponse(t)
	}

	writeJSON(w, http.StatusOK, map[string]any{"tickets": result})
}

// Get はチケット詳細を返す。所有者以外には404で応答する。
// GET /api/tickets/{id}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	ticketID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), ticketID, session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTicketResponse(found))
}

// toTicketResponse はドメインのSupportTicketをAPIレスポンスに変換する。
func toTicketResponse(t *model.SupportTicket) ticketResponse {
	return ticketResponse{
		ID:          t.ID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.Format("2006-01-02 15:04"),
	}
}
