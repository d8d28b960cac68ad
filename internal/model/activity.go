package model

import "time"

// ActivityLog はユーザー操作の監査レコードを表す。追記専用。
type ActivityLog struct {
	ID        string
	UserID    string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// 監査対象のアクション名。
const (
	ActivityLogin         = "login"
	ActivityRegister      = "register"
	ActivityEnroll        = "enroll"
	ActivityReceiptIssued = "receipt_issued"
	ActivityReceiptPaid   = "receipt_paid"
)
