package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/milkround/milkround/pkg/tenantctx"
)

const (
	bearerPrefix        = "Bearer "
	contextAccountIDKey = "account_id"
	contextTokenKey     = "session_token"
)

// AuthRequired resolves the bearer token to a session and stamps the
// account id into the request context for the tenant-scoped services.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextAccountIDKey, session.AccountID.String())
		c.Set(contextTokenKey, token)
		c.Request = c.Request.WithContext(
			tenantctx.WithAccountID(c.Request.Context(), session.AccountID),
		)
		c.Next()
	}
}
