package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linguaacademy/academia/internal/chat"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Send(ctx context.Context, viewer *model.Session, receiverID, text string) (*chat.MessageView, error)
	FetchNew(ctx context.Context, viewer *model.Session, counterpartID string, lastID int64) ([]chat.MessageView, error)
	History(ctx context.Context, viewer *model.Session, counterpartID string) ([]chat.MessageView, error)
	ListConversations(ctx context.Context, viewer *model.Session) ([]chat.ConversationView, error)
}

// ChatMetrics はチャットイベントのメトリクス記録インターフェース。
type ChatMetrics interface {
	RecordMessageSent()
}

// ChatHandler は2者間チャットのHTTPハンドラー。
// チャットAPIは成功・失敗を問わず {success: bool, ...} 形式で応答する。
type ChatHandler struct {
	service ChatServiceInterface
	metrics ChatMetrics
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface, metrics ChatMetrics) *ChatHandler {
	return &ChatHandler{
		service: service,
		metrics: metrics,
	}
}

// sendMessageRequest はメッセージ送信リクエストのボディ。
type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// Send はメッセージ送信を処理する。
// POST /api/chat/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeChatError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeChatError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	view, err := h.service.Send(r.Context(), session, req.ReceiverID, req.Text)
	if err != nil {
		handleChatServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMessageSent()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": view,
	})
}

// FetchNew はカーソルより新しいメッセージを返すポーリングエンドポイント。
// 返却前に相手からの未読メッセージを既読化する。
// GET /api/chat/messages/{userID}?after=N
func (h *ChatHandler) FetchNew(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeChatError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counterpartID := chi.URLParam(r, "userID")

	// afterパラメータ省略時は0（会話の先頭から）
	var lastID int64
	if after := r.URL.Query().Get("after"); after != "" {
		lastID, err = strconv.ParseInt(after, 10, 64)
		if err != nil || lastID < 0 {
			writeChatError(w, http.StatusBadRequest, "invalid_cursor")
			return
		}
	}

	messages, err := h.service.FetchNew(r.Context(), session, counterpartID, lastID)
	if err != nil {
		handleChatServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
	})
}

// History は会話の全メッセージを返す（既読化は行わない読み取り専用ビュー）。
// GET /api/chat/history/{userID}
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeChatError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counterpartID := chi.URLParam(r, "userID")

	messages, err := h.service.History(r.Context(), session, counterpartID)
	if err != nil {
		handleChatServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
	})
}

// ListConversations は会話相手の一覧を最新メッセージ・未読数付きで返す。
// GET /api/chat/conversations
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeChatError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conversations, err := h.service.ListConversations(r.Context(), session)
	if err != nil {
		handleChatServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"conversations": conversations,
	})
}

// writeChatError はチャット契約のエラーペイロード {success:false, error:<reason>} を書き込む。
func writeChatError(w http.ResponseWriter, statusCode int, reason string) {
	writeJSON(w, statusCode, map[string]any{
		"success": false,
		"error":   reason,
	})
}

// handleChatServiceError はサービス層のエラーをチャット契約のペイロードに変換する。
func handleChatServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeEmptyMessage:
			writeChatError(w, http.StatusBadRequest, "empty_message")
		case model.ErrCodeForbiddenPeer:
			writeChatError(w, http.StatusForbidden, "forbidden_peer")
		case model.ErrCodeUserNotFound:
			writeChatError(w, http.StatusNotFound, "user_not_found")
		default:
			writeChatError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	slog.Error("chat internal error", slog.String("error", err.Error()))
	writeChatError(w, http.StatusInternalServerError, "internal_error")
}
