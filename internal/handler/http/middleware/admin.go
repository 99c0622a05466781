package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, role, err := Actor(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if role != auth.RoleAdmin {
			response.HandleError(w, auth.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
