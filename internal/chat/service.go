// Package chat は受講者と講師の間の2者間メッセージ機能を提供する。
// 管理者はピアチャットの対象外であり、送信者・受信者のいずれかが
// 管理者の場合は拒否される。
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
	"github.com/linguaacademy/academia/internal/security"
)

// timeOfDayFormat はメッセージ時刻の表示フォーマット（HH:MM）。
const timeOfDayFormat = "15:04"

// MessageView はクライアントに返すメッセージの射影。
type MessageView struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Time       string `json:"time"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"sender"`
	IsMine     bool   `json:"isMine"`
}

// ConversationView は会話一覧の1エントリの射影。
// LastMessageは一度も会話していない相手の場合null。
type ConversationView struct {
	CounterpartID   string       `json:"counterpartId"`
	CounterpartName string       `json:"counterpartName"`
	CounterpartRole model.Role   `json:"counterpartRole"`
	LastMessage     *MessageView `json:"lastMessage"`
	UnreadCount     int          `json:"unreadCount"`
}

// Service はチャットに関するビジネスロジックを提供する。
type Service struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	sanitizer   security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
	}
}

// Send はviewerからreceiverへメッセージを送信する。
// いずれかの当事者が管理者の場合は本文にかかわらず拒否し、
// 本文はトリム後に空であれば拒否する。保存前に本文からHTMLタグを除去する。
func (s *Service) Send(ctx context.Context, viewer *model.Session, receiverID, text string) (*MessageView, error) {
	// 1. 送信者の役割検証: 管理者はチャット不可（本文の検証より優先）
	if viewer.Role == model.RoleAdministrator {
		return nil, model.NewForbiddenPeerError()
	}

	// 2. 本文の検証: トリム後に空なら拒否
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, model.NewEmptyMessageError()
	}

	// 3. 受信者の検証: 存在し、有効で、管理者でないこと
	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to find receiver: %w", err)
	}
	if receiver == nil || !receiver.IsActive() {
		return nil, model.NewUserNotFoundError()
	}
	if receiver.Role == model.RoleAdministrator {
		return nil, model.NewForbiddenPeerError()
	}

	// 4. 本文をサニタイズして追記
	body = strings.TrimSpace(s.sanitizer.Sanitize(body))
	if body == "" {
		return nil, model.NewEmptyMessageError()
	}

	message, err := s.messageRepo.Create(ctx, viewer.UserID, receiverID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	slog.Info("message sent",
		slog.String("sender_id", viewer.UserID),
		slog.String("receiver_id", receiverID),
		slog.Int64("message_id", message.ID),
	)

	return &MessageView{
		ID:         message.ID,
		Text:       message.Body,
		Time:       message.CreatedAt.Format(timeOfDayFormat),
		SenderID:   viewer.UserID,
		SenderName: viewer.DisplayName,
		IsMine:     true,
	}, nil
}

// FetchNew はポーリングの1回分を処理する。
// counterpartからviewerへの未読を既読化した上で、lastIDより新しい
// 会話中のメッセージ（双方向）をID昇順で返す。
// lastIDが0の場合は会話の先頭から返す（初回ロード用）。
func (s *Service) FetchNew(ctx context.Context, viewer *model.Session, counterpartID string, lastID int64) ([]MessageView, error) {
	counterpart, err := s.userRepo.FindByID(ctx, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("failed to find counterpart: %w", err)
	}
	if counterpart == nil {
		return nil, model.NewUserNotFoundError()
	}

	// 1. 相手からの未読を既読化（冪等）
	if _, err := s.messageRepo.MarkRead(ctx, viewer.UserID, counterpartID); err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	// 2. カーソル以降のメッセージを取得
	messages, err := s.messageRepo.ListBetweenSince(ctx, viewer.UserID, counterpartID, lastID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new messages: %w", err)
	}

	return s.toViews(messages, viewer, counterpart), nil
}

// History は2者間の全メッセージを作成時刻昇順（同時刻はID昇順）で返す。
// 既読化は行わない読み取り専用の操作。
func (s *Service) History(ctx context.Context, viewer *model.Session, counterpartID string) ([]MessageView, error) {
	counterpart, err := s.userRepo.FindByID(ctx, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("failed to find counterpart: %w", err)
	}
	if counterpart == nil {
		return nil, model.NewUserNotFoundError()
	}

	messages, err := s.messageRepo.ListBetween(ctx, viewer.UserID, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return s.toViews(messages, viewer, counterpart), nil
}

// ListConversations はviewerの会話一覧を返す。読み取り専用で状態を変更しない。
// 並び順は最新メッセージの新しい順、一度も会話していない相手は末尾。
func (s *Service) ListConversations(ctx context.Context, viewer *model.Session) ([]ConversationView, error) {
	entries, err := s.messageRepo.ListConversations(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	views := make([]ConversationView, 0, len(entries))
	for _, entry := range entries {
		view := ConversationView{
			CounterpartID:   entry.CounterpartID,
			CounterpartName: entry.CounterpartName,
			CounterpartRole: entry.CounterpartRole,
			UnreadCount:     entry.UnreadCount,
		}
		if entry.LastMessage != nil {
			senderName := entry.CounterpartName
			if entry.LastMessage.SenderID == viewer.UserID {
				senderName = viewer.DisplayName
			}
			view.LastMessage = &MessageView{
				ID:         entry.LastMessage.ID,
				Text:       entry.LastMessage.Body,
				Time:       entry.LastMessage.CreatedAt.Format(timeOfDayFormat),
				SenderID:   entry.LastMessage.SenderID,
				SenderName: senderName,
				IsMine:     entry.LastMessage.SenderID == viewer.UserID,
			}
		}
		views = append(views, view)
	}

	return views, nil
}

// toViews はメッセージ列を射影に変換する。
// 送信者名はviewer自身か会話相手のいずれかに解決される。
func (s *Service) toViews(messages []*model.Message, viewer *model.Session, counterpart *model.User) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		isMine := m.SenderID == viewer.UserID
		senderName := counterpart.DisplayName()
		if isMine {
			senderName = viewer.DisplayName
		}
		views = append(views, MessageView{
			ID:         m.ID,
			Text:       m.Body,
			Time:       m.CreatedAt.Format(timeOfDayFormat),
			SenderID:   m.SenderID,
			SenderName: senderName,
			IsMine:     isMine,
		})
	}
	return views
}
