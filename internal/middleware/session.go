package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/response"
)

// ContextCaller is the key for the authenticated models.Caller in gin context.
const ContextCaller = "caller"

// SessionVerifier resolves a session token to its user.
type SessionVerifier interface {
	VerifySession(ctx context.Context, sessionToken string) (*models.User, error)
}

// Session returns a middleware that resolves the caller from a session token and
// sets it in context. The token is read from the session_token query parameter or
// an "Authorization: Bearer" header.
func Session(verifier SessionVerifier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			response.Unauthorized(c, "Token de sesión requerido")
			c.Abort()
			return
		}
		user, err := verifier.VerifySession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, upstream.ErrNotFound) {
				response.Unauthorized(c, "Credenciales expiradas, cerrando sesión.")
			} else {
				logger.Warn("session verification failed", zap.Error(err))
				response.Error(c, http.StatusServiceUnavailable, "No se pudo verificar la sesión")
			}
			c.Abort()
			return
		}
		c.Set(ContextCaller, *user)
		c.Next()
	}
}

// CallerFrom returns the caller set by Session.
func CallerFrom(c *gin.Context) (models.Caller, bool) {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}

func sessionToken(c *gin.Context) string {
	if t := c.Query("session_token"); t != "" {
		return t
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
