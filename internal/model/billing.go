package model

import "time"

// ReceiptStatus は支払い状態を表す。
// pending → paid、またはpending → overdue → paid に遷移する。
type ReceiptStatus string

const (
	ReceiptStatusPending ReceiptStatus = "pending"
	ReceiptStatusPaid    ReceiptStatus = "paid"
	ReceiptStatusOverdue ReceiptStatus = "overdue"
)

// Receipt は受講料の支払い伝票を表す。
// 金額はセント単位の整数で保持する（浮動小数点の丸め誤差を避ける）。
type Receipt struct {
	ID          string
	UserID      string
	IssuedAt    time.Time
	DueAt       time.Time
	AmountCents int64
	Status      ReceiptStatus
}
