// Package ticket はサポート問い合わせのドメインロジックを提供する。
package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
	"github.com/linguaacademy/academia/internal/security"
)

// Service はサポートチケットに関するビジネスロジックを提供する。
type Service struct {
	ticketRepo repository.TicketRepository
	sanitizer  security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(ticketRepo repository.TicketRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		ticketRepo: ticketRepo,
		sanitizer:  sanitizer,
	}
}

// CreateInput はチケット作成の入力を表す。
// UserIDが空の場合は未認証の問い合わせとして扱い、連絡先が必須になる。
type CreateInput struct {
	UserID       string
	ContactName  string
	ContactEmail string
	Subject      string
	Description  string
}

// Create はチケットを作成する。
// 認証済みの場合は本人所有のチケット、未認証の場合は連絡先必須の匿名チケット。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.SupportTicket, error) {
	subject := strings.TrimSpace(s.sanitizer.Sanitize(input.Subject))
	description := strings.TrimSpace(s.sanitizer.Sanitize(input.Description))
	if subject == "" || description == "" {
		return nil, model.NewInvalidRequestError("件名と内容は必須です")
	}

	contactName := strings.TrimSpace(s.sanitizer.Sanitize(input.ContactName))
	contactEmail := strings.TrimSpace(input.ContactEmail)
	if input.UserID == "" {
		if contactName == "" || contactEmail == "" {
			return nil, model.NewInvalidRequestError("未ログインの問い合わせには連絡先の氏名とメールアドレスが必要です")
		}
	}

	ticket := &model.SupportTicket{
		ID:           uuid.New().String(),
		UserID:       input.UserID,
		ContactName:  contactName,
		ContactEmail: contactEmail,
		CreatedAt:    time.Now(),
		Status:       model.TicketStatusOpen,
		Subject:      subject,
		Description:  description,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	slog.Info("support ticket created",
		slog.String("ticket_id", ticket.ID),
		slog.Bool("anonymous", ticket.UserID == ""),
	)

	return ticket, nil
}

// ListMine はユーザー自身のチケット一覧を作成日時降順で返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	tickets, err := s.ticketRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// Get はチケットを取得する。所有者以外のアクセスには、チケットの存在を
// 漏らさないためTicketNotFoundで応答する。
func (s *Service) Get(ctx context.Context, ticketID, viewerUserID string) (*model.SupportTicket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}
	if ticket == nil || ticket.UserID != viewerUserID {
		return nil, model.NewTicketNotFoundError(ticketID)
	}
	return ticket, nil
}
