// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, chat, course, billing, support, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	ErrCodeAuthorizationDenied    = "AUTHORIZATION_DENIED"
	ErrCodeAccountDisabled        = "ACCOUNT_DISABLED"
	ErrCodeInvalidCredential      = "INVALID_CREDENTIAL"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeEmptyMessage           = "EMPTY_MESSAGE"
	ErrCodeForbiddenPeer          = "FORBIDDEN_PEER"
	ErrCodeCourseNotFound         = "COURSE_NOT_FOUND"
	ErrCodeDuplicateEnrollment    = "DUPLICATE_ENROLLMENT"
	ErrCodeDuplicateEmail         = "DUPLICATE_EMAIL"
	ErrCodePasswordTooShort       = "PASSWORD_TOO_SHORT"
	ErrCodeTicketNotFound         = "TICKET_NOT_FOUND"
	ErrCodeReceiptNotFound        = "RECEIPT_NOT_FOUND"
	ErrCodeAssessmentNotFound     = "ASSESSMENT_NOT_FOUND"
	ErrCodeInvalidURL             = "INVALID_URL"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
)

// NewAuthenticationRequiredError は未認証エラーを生成する。
func NewAuthenticationRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthenticationRequired,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewAuthorizationDeniedError は役割不一致による認可エラーを生成する。
func NewAuthorizationDeniedError(required Role) *APIError {
	return &APIError{
		Code:     ErrCodeAuthorizationDenied,
		Message:  fmt.Sprintf("この操作には %s 権限が必要です。", required),
		Category: "auth",
		Action:   "権限のあるアカウントでログインし直してください。",
	}
}

// NewAccountDisabledError は無効化されたアカウントでのログイン試行エラーを生成する。
func NewAccountDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountDisabled,
		Message:  "このアカウントは無効化されています。",
		Category: "auth",
		Action:   "管理者に連絡してください。",
	}
}

// NewInvalidCredentialError はパスワード不一致エラーを生成する。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "パスワードを確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認するか、新規登録してください。",
	}
}

// NewEmptyMessageError は空メッセージ送信エラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "メッセージが空です。",
		Category: "chat",
		Action:   "本文を入力してから送信してください。",
	}
}

// NewForbiddenPeerError は管理者が関与するチャットの禁止エラーを生成する。
// ピアチャットはポリシーとして管理者を除外する。
func NewForbiddenPeerError() *APIError {
	return &APIError{
		Code:     ErrCodeForbiddenPeer,
		Message:  "このユーザーとはチャットできません。",
		Category: "chat",
		Action:   "チャットは受講者と講師の間でのみ利用できます。",
	}
}

// NewCourseNotFoundError はコース未検出エラーを生成する。
func NewCourseNotFoundError(courseID string) *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  fmt.Sprintf("指定されたコースが見つかりません: %s", courseID),
		Category: "course",
		Action:   "コース一覧から選択し直してください。",
	}
}

// NewDuplicateEnrollmentError は重複受講登録エラーを生成する。
func NewDuplicateEnrollmentError(courseName string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEnrollment,
		Message:  fmt.Sprintf("すでに「%s」に登録済みです。", courseName),
		Category: "course",
		Action:   "ダッシュボードから受講状況を確認してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスはすでに登録されています。",
		Category: "validation",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("パスワードは%d文字以上で入力してください。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewTicketNotFoundError はチケット未検出エラーを生成する。
// 他ユーザーのチケットへのアクセスも、存在を漏らさないためこのエラーで応答する。
func NewTicketNotFoundError(ticketID string) *APIError {
	return &APIError{
		Code:     ErrCodeTicketNotFound,
		Message:  fmt.Sprintf("指定されたチケットが見つかりません: %s", ticketID),
		Category: "support",
		Action:   "チケット一覧から選択し直してください。",
	}
}

// NewReceiptNotFoundError は支払い伝票未検出エラーを生成する。
func NewReceiptNotFoundError(receiptID string) *APIError {
	return &APIError{
		Code:     ErrCodeReceiptNotFound,
		Message:  fmt.Sprintf("指定された支払い伝票が見つかりません: %s", receiptID),
		Category: "billing",
		Action:   "伝票番号を確認してください。",
	}
}

// NewAssessmentNotFoundError は評価未検出エラーを生成する。
func NewAssessmentNotFoundError(assessmentID string) *APIError {
	return &APIError{
		Code:     ErrCodeAssessmentNotFound,
		Message:  fmt.Sprintf("指定された評価が見つかりません: %s", assessmentID),
		Category: "course",
		Action:   "評価IDを確認してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "http:// または https:// で始まる公開URLを指定してください。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
