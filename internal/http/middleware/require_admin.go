package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"veloria.shop/app/internal/shared/apperr"
)

const (
	headerAdminActor = "X-Admin-Actor"
	ctxKeyAdminActor = "admin_actor"
)

// RequireAdmin: Bearer token ile korunan API. Actor id audit satırlarına
// yazılır; header gelmezse "admin" kullanılır.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			Fail(c, apperr.ForbiddenErr("Admin API is not configured."))
			return
		}

		auth := c.GetHeader("Authorization")
		got, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		actor := strings.TrimSpace(c.GetHeader(headerAdminActor))
		if actor == "" {
			actor = "admin"
		}
		c.Set(ctxKeyAdminActor, actor)

		c.Next()
	}
}

func AdminActor(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyAdminActor); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "admin"
}
