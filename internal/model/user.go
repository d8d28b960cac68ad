// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す閉じた列挙型。
// 文字列比較をハンドラーに散在させず、この型を介して判定する。
type Role string

const (
	// RoleLearner は受講者（学習者）を表す。
	RoleLearner Role = "learner"
	// RoleInstructor は講師を表す。
	RoleInstructor Role = "instructor"
	// RoleAdministrator は管理者を表す。
	RoleAdministrator Role = "administrator"
)

// IsValid はRoleが定義済みの値かどうかを判定する。
func (r Role) IsValid() bool {
	switch r {
	case RoleLearner, RoleInstructor, RoleAdministrator:
		return true
	default:
		return false
	}
}

// UserStatus はアカウントの有効状態を表す。
// 物理削除は行わず、inactiveへの遷移で無効化する。
type UserStatus string

const (
	// UserStatusActive は有効なアカウントを表す。
	UserStatusActive UserStatus = "active"
	// UserStatusInactive は無効化されたアカウントを表す。
	UserStatusInactive UserStatus = "inactive"
)

// User は登録済みの参加者（受講者・講師・管理者）を表す。
// PasswordHashはbcrypt形式で保存され、平文は保持しない。
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	RegisteredAt time.Time
}

// DisplayName は姓名を連結した表示名を返す。
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// IsActive はアカウントが有効かどうかを返す。
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Session はユーザーのログインセッションを表す。
// セッションIDは不透明な値で、ユーザーID・役割・表示名を
// サーバー側に保持する（暗黙のグローバル状態は使わない）。
type Session struct {
	ID          string
	UserID      string
	Role        Role
	DisplayName string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
