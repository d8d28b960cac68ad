// Package mailer はメール送信機能を提供する。
// SendGridによる実送信と、APIキー未設定時のログ出力のみの実装を持つ。
package mailer

import (
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer はメール送信のインターフェース。本文はプレーンテキスト。
type Mailer interface {
	Send(toEmail, toName, subject, body string) error
}

// SendGridMailer はSendGridを使用したMailerの実装。
type SendGridMailer struct {
	apiKey   string
	fromName string
	fromAddr string
}

// NewSendGridMailer はSendGridMailerを生成する。
func NewSendGridMailer(apiKey, fromName, fromAddr string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:   apiKey,
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// Send はSendGrid経由でメールを送信する。
func (m *SendGridMailer) Send(toEmail, toName, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	slog.Info("email sent",
		slog.String("to", toEmail),
		slog.String("subject", subject),
	)
	return nil
}

// LogMailer はメールを送信せずログに記録するMailerの実装。
// SENDGRID_API_KEYが未設定の環境（開発・テスト）で使用される。
type LogMailer struct{}

// NewLogMailer はLogMailerを生成する。
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send はメール内容をログに出力する。
func (m *LogMailer) Send(toEmail, toName, subject, body string) error {
	slog.Info("email suppressed (no mail API key configured)",
		slog.String("to", toEmail),
		slog.String("subject", subject),
		slog.Int("body_length", len(body)),
	)
	return nil
}

// New はAPIキーの有無に応じて適切なMailerを返す。
func New(apiKey, fromName, fromAddr string) Mailer {
	if apiKey == "" {
		return NewLogMailer()
	}
	return NewSendGridMailer(apiKey, fromName, fromAddr)
}

// compile-time interface checks
var _ Mailer = (*SendGridMailer)(nil)
var _ Mailer = (*LogMailer)(nil)
