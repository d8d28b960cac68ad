// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/linguaacademy/academia/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateStatus はアカウントの有効状態を更新する。物理削除は行わない。
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) error

	// Count は全ユーザー数を返す。
	Count(ctx context.Context) (int, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// MessageRepository はチャットメッセージの永続化インターフェース。
// IDはDB側のシーケンスで採番され、挿入順に単調増加する。
type MessageRepository interface {
	// Create はメッセージを追記する。IDと作成日時はDB側で採番・刻印され、
	// 完成したメッセージを返す。
	Create(ctx context.Context, senderID, receiverID, body string) (*model.Message, error)

	// ListBetween は2者間の全メッセージ（双方向）を
	// created_at昇順・ID昇順で返す。
	ListBetween(ctx context.Context, userID, peerID string) ([]*model.Message, error)

	// ListBetweenSince は2者間のメッセージ（双方向）のうち
	// IDがafterIDより大きいものをID昇順で返す。ポーリングカーソルの本体。
	ListBetweenSince(ctx context.Context, userID, peerID string, afterID int64) ([]*model.Message, error)

	// MarkRead はsenderからreceiverへの未読メッセージを一括で既読にする。
	// 冪等であり、更新件数を返す。
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)

	// ListConversations はviewerの会話一覧を返す。
	// 対象はviewer以外の有効な非管理者ユーザー全員。各エントリは最新メッセージ
	// （未会話の場合nil）と未読数を持ち、最新メッセージの新しい順、
	// 未会話の相手は末尾に並ぶ。
	ListConversations(ctx context.Context, viewerID string) ([]model.ConversationEntry, error)
}

// CourseRepository はコースデータの永続化インターフェース。
type CourseRepository interface {
	// FindByID は指定IDのコースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Course, error)

	// ListActive は公開中のコースを名前昇順で返す。
	ListActive(ctx context.Context) ([]*model.Course, error)

	// Create はコースを作成する。
	Create(ctx context.Context, course *model.Course) error

	// Count は全コース数を返す。
	Count(ctx context.Context) (int, error)
}

// EnrollmentRepository は受講登録の永続化インターフェース。
type EnrollmentRepository interface {
	// FindActiveByUserAndCourse はユーザーとコースのactiveな受講登録を検索する。
	// 見つからない場合はnilを返す。
	FindActiveByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Enrollment, error)

	// Create は受講登録を作成する。
	Create(ctx context.Context, enrollment *model.Enrollment) error

	// ListActiveByUser はユーザーのactiveな受講登録をコース情報付きで返す。
	ListActiveByUser(ctx context.Context, userID string) ([]EnrollmentWithCourse, error)

	// CountActive はactiveな受講登録の総数を返す。
	CountActive(ctx context.Context) (int, error)
}

// ClassSessionRepository は授業回の永続化インターフェース。
type ClassSessionRepository interface {
	// Create は授業回を作成する。
	Create(ctx context.Context, session *model.ClassSession) error

	// ListByCourse はコースの授業回を開始日時昇順で返す。
	ListByCourse(ctx context.Context, courseID string) ([]*model.ClassSession, error)

	// ListUpcomingForUser はユーザーがactive受講中のコースの
	// 今後の授業回をコース名付きで開始日時昇順で返す。
	ListUpcomingForUser(ctx context.Context, userID string, after time.Time, limit int) ([]ClassSessionWithCourse, error)
}

// ContentRepository は教材の永続化インターフェース。
type ContentRepository interface {
	// Create は教材を作成する。
	Create(ctx context.Context, content *model.CourseContent) error

	// ListByCourse はコースの教材を作成日時昇順で返す。
	ListByCourse(ctx context.Context, courseID string) ([]*model.CourseContent, error)

	// ListByUploader は講師が登録した教材をコース名付きで作成日時降順で返す。
	ListByUploader(ctx context.Context, uploaderID string) ([]ContentWithCourse, error)

	// ListCoursesByUploader は講師が教材を登録したコースを重複なしで返す。
	ListCoursesByUploader(ctx context.Context, uploaderID string) ([]*model.Course, error)
}

// AssessmentRepository は評価と評価結果の永続化インターフェース。
type AssessmentRepository interface {
	// FindByID は指定IDの評価を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Assessment, error)

	// Create は評価を作成する。
	Create(ctx context.Context, assessment *model.Assessment) error

	// ListByCourse はコースの評価を実施日昇順で返す。
	ListByCourse(ctx context.Context, courseID string) ([]*model.Assessment, error)

	// CreateResult は評価結果を作成する。
	CreateResult(ctx context.Context, result *model.AssessmentResult) error

	// ListResultsByUser はユーザーの評価結果を評価情報付きで記録日時降順で返す。
	ListResultsByUser(ctx context.Context, userID string) ([]ResultWithAssessment, error)
}

// ReceiptRepository は支払い receipt の永続化インターフェース。
type ReceiptRepository interface {
	// FindByID は指定IDのreceiptを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Receipt, error)

	// Create はreceiptを作成する。
	Create(ctx context.Context, receipt *model.Receipt) error

	// ListByUser はユーザーのreceiptを発行日時降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Receipt, error)

	// ListPendingByUser はユーザーの未払い（pendingまたはoverdue）receiptを
	// 支払期限昇順で返す。
	ListPendingByUser(ctx context.Context, userID string) ([]*model.Receipt, error)

	// UpdateStatus はreceiptの状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.ReceiptStatus) error

	// MarkOverdueDueBefore は支払期限を過ぎたpendingのreceiptをoverdueに遷移させ、
	// 遷移したreceiptを返す。冪等であり、2回目以降の実行では空を返す。
	MarkOverdueDueBefore(ctx context.Context, now time.Time) ([]*model.Receipt, error)
}

// TicketRepository はサポートチケットの永続化インターフェース。
type TicketRepository interface {
	// FindByID は指定IDのチケットを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.SupportTicket, error)

	// Create はチケットを作成する。
	Create(ctx context.Context, ticket *model.SupportTicket) error

	// ListByUser はユーザーのチケットを作成日時降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error)
}

// ActivityLogRepository は活動ログの永続化インターフェース。追記専用。
type ActivityLogRepository interface {
	// Create は活動ログを1件追記する。
	Create(ctx context.Context, log *model.ActivityLog) error

	// DeleteOlderThan は指定日時より古いログを削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EnrollmentWithCourse は受講登録とコース情報を結合した構造体。
type EnrollmentWithCourse struct {
	model.Enrollment
	CourseName     string
	CourseLevel    model.CourseLevel
	CourseModality model.CourseModality
}

// ClassSessionWithCourse は授業回とコース名を結合した構造体。
type ClassSessionWithCourse struct {
	model.ClassSession
	CourseName string
}

// ContentWithCourse は教材とコース名を結合した構造体。
type ContentWithCourse struct {
	model.CourseContent
	CourseName string
}

// ResultWithAssessment は評価結果と評価・コース情報を結合した構造体。
type ResultWithAssessment struct {
	model.AssessmentResult
	AssessmentName string
	AssessmentDate time.Time
	CourseName     string
}
