package auth

import "github.com/linguaacademy/academia/internal/model"

// Authorize はセッションが要求された役割を持つかを判定する純粋関数。
// セッションがnilの場合は常にfalse。役割を指定しない場合は
// 認証済みであることのみを要求する。判定はパニックせず真偽値のみを返す。
func Authorize(session *model.Session, required ...model.Role) bool {
	if session == nil {
		return false
	}
	if !session.Role.IsValid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		if session.Role == role {
			return true
		}
	}
	return false
}

// RoleDestination は役割ごとのダッシュボードのパスを返す。
func RoleDestination(role model.Role) string {
	switch role {
	case model.RoleAdministrator:
		return "/dashboard/admin"
	case model.RoleInstructor:
		return "/dashboard/instructor"
	default:
		return "/dashboard/learner"
	}
}
