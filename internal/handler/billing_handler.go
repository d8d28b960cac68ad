package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// BillingServiceInterface は請求ハンドラーが必要とするサービスインターフェース。
type BillingServiceInterface interface {
	IssueReceipt(ctx context.Context, userID string, amountCents int64, dueAt time.Time) (*model.Receipt, error)
	MarkPaid(ctx context.Context, receiptID string) (*model.Receipt, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Receipt, error)
}

// BillingHandler は支払い伝票のHTTPハンドラー。
// 発行・入金記録は管理者専用、一覧は本人のみ。
type BillingHandler struct {
	service BillingServiceInterface
}

// NewBillingHandler はBillingHandlerを生成する。
func NewBillingHandler(service BillingServiceInterface) *BillingHandler {
	return &BillingHandler{service: service}
}

// issueReceiptRequest は伝票発行リクエストのボディ。
type issueReceiptRequest struct {
	UserID      string    `json:"userId"`
	AmountCents int64     `json:"amountCents"`
	DueAt       time.Time `json:"dueAt"`
}

// receiptResponse は伝票情報のAPIレスポンス。
type receiptResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	IssuedAt    time.Time `json:"issuedAt"`
	DueAt       time.Time `json:"dueAt"`
	AmountCents int64     `json:"amountCents"`
	Status      string    `json:"status"`
}

// IssueReceipt は管理者による伝票発行を処理する。
// POST /api/admin/receipts
func (h *BillingHandler) IssueReceipt(w http.ResponseWriter, r *http.Request) {
	var req issueReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	receipt, err := h.service.IssueReceipt(r.Context(), req.UserID, req.AmountCents, req.DueAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReceiptResponse(receipt))
}

// MarkPaid は管理者による入金記録を処理する。支払い済み伝票には冪等。
// POST /api/admin/receipts/{id}/paid
func (h *BillingHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	receiptID := chi.URLParam(r, "id")

	receipt, err := h.service.MarkPaid(r.Context(), receiptID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// ListMine はユーザー自身の伝票一覧を返す。
// GET /api/receipts
func (h *BillingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
		return
	}

	receipts, err := h.service.ListForUser(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result := make([]receiptResponse, len(receipts))
	for i, rc := range receipts {
		result[i] = toReceiptResponse(rc)
	}

	writeJSON(w, http.StatusOK, map[string]any{"receipts": result})
}

// toReceiptResponse はドメインのReceiptをAPIレスポンスに変換する。
func toReceiptResponse(r *model.Receipt) receiptResponse {
	return receiptResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		IssuedAt:    r.IssuedAt,
		DueAt:       r.DueAt,
		AmountCents: r.AmountCents,
		Status:      string(r.Status),
	}
}
