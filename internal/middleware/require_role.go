package middleware

import (
	"net/http"

	"github.com/linguaacademy/academia/internal/auth"
	"github.com/linguaacademy/academia/internal/model"
)

// NewRequireRoleMiddleware は指定された役割のいずれかを持つセッションのみを
// 通過させるミドルウェアを返す。セッションミドルウェアの後に配置する。
// 未認証は401、役割不一致は403で応答する。
func NewRequireRoleMiddleware(required ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := SessionFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationRequiredError())
				return
			}

			if !auth.Authorize(session, required...) {
				WriteErrorResponse(w, http.StatusForbidden, model.NewAuthorizationDeniedError(required[0]))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
