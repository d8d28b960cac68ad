package model

import "time"

// TicketStatus はサポートチケットの状態を表す。
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// SupportTicket はサポート問い合わせを表す。
// 認証済みユーザーの場合はUserIDが設定され、未認証の問い合わせでは
// UserIDが空のままContactName/ContactEmailに連絡先を保持する。
type SupportTicket struct {
	ID           string
	UserID       string // 未認証の問い合わせでは空
	ContactName  string
	ContactEmail string
	CreatedAt    time.Time
	Status       TicketStatus
	Subject      string
	Description  string
}
