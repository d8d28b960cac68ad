package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/auth"
	"github.com/linguaacademy/academia/internal/model"
)

// UserAdminServiceInterface は管理者向けユーザー管理のサービスインターフェース。
type UserAdminServiceInterface interface {
	ProvisionUser(ctx context.Context, input auth.ProvisionInput) (*model.User, error)
	SetUserStatus(ctx context.Context, userID string, status model.UserStatus) (*model.User, error)
}

// UserHandler は管理者によるアカウント管理のHTTPハンドラー。
// 講師・管理者アカウントの発行と、アカウントの有効化・無効化を担う。
type UserHandler struct {
	service UserAdminServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserAdminServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// provisionUserRequest はアカウント発行リクエストのボディ。
type provisionUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// updateStatusRequest はアカウント状態更新リクエストのボディ。
type updateStatusRequest struct {
	Status string `json:"status"`
}

// Provision は講師・管理者アカウントの発行を処理する。
// POST /api/admin/users
func (h *UserHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	created, err := h.service.ProvisionUser(r.Context(), auth.ProvisionInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      model.Role(req.Role),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:          created.ID,
		DisplayName: created.DisplayName(),
		Email:       created.Email,
		Role:        string(created.Role),
	})
}

// UpdateStatus はアカウントの有効化・無効化を処理する。
// 無効化されたアカウントのセッションは即座に失効する。
// PATCH /api/admin/users/{id}/status
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	status := model.UserStatus(req.Status)
	if status != model.UserStatusActive && status != model.UserStatusInactive {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("statusはactiveまたはinactiveを指定してください"))
		return
	}

	updated, err := h.service.SetUserStatus(r.Context(), userID, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     updated.ID,
		"status": updated.Status,
	})
}
