// Package billing は支払いreceiptの発行・入金確認・督促のドメインロジックを提供する。
// 決済そのものは外部チャネル（銀行振込等）で行われ、本システムは
// receiptの状態管理と通知のみを担う。
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linguaacademy/academia/internal/mailer"
	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// receiptDateFormat はメール本文中の日付表記。
const receiptDateFormat = "02/01/2006 15:04"

// 送信メールの種別ラベル。
const (
	mailKindReceiptIssued       = "receipt_issued"
	mailKindPaymentConfirmation = "payment_confirmation"
	mailKindOverdueReminder     = "overdue_reminder"
)

// MailMetrics は送信メールの計測を行うインターフェース。
type MailMetrics interface {
	RecordMailSent(kind string)
}

// Service はreceiptに関するビジネスロジックを提供する。
type Service struct {
	receiptRepo  repository.ReceiptRepository
	userRepo     repository.UserRepository
	activityRepo repository.ActivityLogRepository
	mailer       mailer.Mailer
	metrics      MailMetrics
}

// NewService はServiceを生成する。metricsはnil可（記録しない）。
func NewService(
	receiptRepo repository.ReceiptRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityLogRepository,
	m mailer.Mailer,
	metrics MailMetrics,
) *Service {
	return &Service{
		receiptRepo:  receiptRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		mailer:       m,
		metrics:      metrics,
	}
}

// sendMail はメールを送信し、成功した場合のみ種別付きで計測する。
func (s *Service) sendMail(kind, toEmail, toName, subject, body string) error {
	if err := s.mailer.Send(toEmail, toName, subject, body); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordMailSent(kind)
	}
	return nil
}

// IssueReceipt は管理者によるreceipt発行を行う。
// 発行後、支払いチャネル一覧を含む通知メールを送信する。
// メール送信の失敗は発行自体を失敗させない。
func (s *Service) IssueReceipt(ctx context.Context, userID string, amountCents int64, dueAt time.Time) (*model.Receipt, error) {
	if amountCents <= 0 {
		return nil, model.NewInvalidRequestError("金額は正の値を指定してください")
	}
	if dueAt.IsZero() {
		return nil, model.NewInvalidRequestError("支払期限は必須です")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	receipt := &model.Receipt{
		ID:          uuid.New().String(),
		UserID:      userID,
		IssuedAt:    time.Now(),
		DueAt:       dueAt,
		AmountCents: amountCents,
		Status:      model.ReceiptStatusPending,
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	s.recordActivity(ctx, userID, model.ActivityReceiptIssued, receipt.ID)

	subject := fmt.Sprintf("Recibo de Pago #%s - LinguaAcademy", receipt.ID)
	if err := s.sendMail(mailKindReceiptIssued, user.Email, user.DisplayName(), subject, receiptIssuedBody(user, receipt)); err != nil {
		slog.Error("failed to send receipt email",
			slog.String("receipt_id", receipt.ID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("receipt issued",
		slog.String("receipt_id", receipt.ID),
		slog.String("user_id", userID),
		slog.Int64("amount_cents", amountCents),
	)

	return receipt, nil
}

// MarkPaid は管理者による入金確認を行い、確認メールを送信する。
func (s *Service) MarkPaid(ctx context.Context, receiptID string) (*model.Receipt, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to find receipt: %w", err)
	}
	if receipt == nil {
		return nil, model.NewReceiptNotFoundError(receiptID)
	}
	if receipt.Status == model.ReceiptStatusPaid {
		return receipt, nil
	}

	if err := s.receiptRepo.UpdateStatus(ctx, receiptID, model.ReceiptStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to mark receipt paid: %w", err)
	}
	receipt.Status = model.ReceiptStatusPaid

	s.recordActivity(ctx, receipt.UserID, model.ActivityReceiptPaid, receipt.ID)

	user, err := s.userRepo.FindByID(ctx, receipt.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil {
		subject := fmt.Sprintf("Confirmación de Pago #%s - LinguaAcademy", receipt.ID)
		if err := s.sendMail(mailKindPaymentConfirmation, user.Email, user.DisplayName(), subject, receiptPaidBody(user, receipt)); err != nil {
			slog.Error("failed to send payment confirmation email",
				slog.String("receipt_id", receipt.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("receipt marked paid", slog.String("receipt_id", receipt.ID))

	return receipt, nil
}

// ListForUser はユーザー自身のreceipt一覧を発行日時降順で返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*model.Receipt, error) {
	receipts, err := s.receiptRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, nil
}

// ReviewOverdue は支払期限を過ぎたpendingのreceiptをoverdueに遷移させ、
// 各対象者に督促メールを送信する。遷移はDB側の単一UPDATEで行われるため
// 冪等であり、同じreceiptに督促が二重送信されることはない。
// 遷移した件数を返す。
func (s *Service) ReviewOverdue(ctx context.Context, now time.Time) (int, error) {
	flipped, err := s.receiptRepo.MarkOverdueDueBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to review overdue receipts: %w", err)
	}

	for _, receipt := range flipped {
		user, err := s.userRepo.FindByID(ctx, receipt.UserID)
		if err != nil {
			slog.Error("failed to find user for overdue reminder",
				slog.String("receipt_id", receipt.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if user == nil {
			continue
		}
		subject := fmt.Sprintf("Recordatorio de Pago #%s - LinguaAcademy", receipt.ID)
		if err := s.sendMail(mailKindOverdueReminder, user.Email, user.DisplayName(), subject, receiptOverdueBody(user, receipt)); err != nil {
			slog.Error("failed to send overdue reminder email",
				slog.String("receipt_id", receipt.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(flipped) > 0 {
		slog.Info("receipts marked overdue", slog.Int("count", len(flipped)))
	}

	return len(flipped), nil
}

// recordActivity は監査ログを追記する。失敗しても本体の操作は成功のままにする。
func (s *Service) recordActivity(ctx context.Context, userID, action, detail string) {
	entry := &model.ActivityLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		slog.Error("failed to record activity log",
			slog.String("user_id", userID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// formatAmount は金額（センタボ単位）を表示用に整形する。
func formatAmount(amountCents int64) string {
	return fmt.Sprintf("$%d.%02d COP", amountCents/100, amountCents%100)
}

// receiptIssuedBody はreceipt発行通知メールの本文を生成する。
// 支払いは外部チャネルで行われるため、利用可能なチャネル一覧を含める。
func receiptIssuedBody(user *model.User, receipt *model.Receipt) string {
	return fmt.Sprintf(`Estimado/a %s,

Le informamos que hemos generado su recibo de pago con los siguientes detalles:

Número de Recibo: #%s
Fecha de Emisión: %s
Fecha Límite de Pago: %s
Valor: %s
Estado: PENDIENTE

Opciones de pago disponibles:
- Bancolombia (Transferencia Bancaria) - Cuenta de Ahorros 123-456789-01, titular LinguaAcademy
- Nequi (Pago por celular) - 300 123 4567
- Daviplata (Pago por celular) - 300 123 4567
- PSE (Pago electrónico) - https://www.linguaacademy.example/pagar
- PayU (Tarjeta de crédito/débito) - Visa, Mastercard, American Express

Si tiene alguna pregunta, no dude en contactarnos.

Atentamente,
LinguaAcademy`,
		user.DisplayName(),
		receipt.ID,
		receipt.IssuedAt.Format(receiptDateFormat),
		receipt.DueAt.Format(receiptDateFormat),
		formatAmount(receipt.AmountCents),
	)
}

// receiptPaidBody は入金確認メールの本文を生成する。
func receiptPaidBody(user *model.User, receipt *model.Receipt) string {
	return fmt.Sprintf(`Estimado/a %s,

Hemos confirmado el pago de su recibo #%s por %s.

Gracias por su pago.

Atentamente,
LinguaAcademy`,
		user.DisplayName(),
		receipt.ID,
		formatAmount(receipt.AmountCents),
	)
}

// receiptOverdueBody は督促メールの本文を生成する。
func receiptOverdueBody(user *model.User, receipt *model.Receipt) string {
	return fmt.Sprintf(`Estimado/a %s,

Su recibo de pago #%s por %s venció el %s y se encuentra PENDIENTE de pago.

Por favor realice el pago a la mayor brevedad posible.

Atentamente,
LinguaAcademy`,
		user.DisplayName(),
		receipt.ID,
		formatAmount(receipt.AmountCents),
		receipt.DueAt.Format(receiptDateFormat),
	)
}
