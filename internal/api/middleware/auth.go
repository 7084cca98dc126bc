package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/lexlab-ai/funnel/internal/api/shared/errors"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const SESSION_KEY contextKey = "admin_session"

// SessionValidator resolves a session token
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*session.Session, error)
}

// SessionToken extracts the session token from the Authorization header,
// the session cookie or the token query parameter, in that order.
// The query parameter serves EventSource clients, which cannot set headers.
func SessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// SessionAuth guards admin routes
func SessionAuth(validator SessionValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Authentication required"))
			return
		}

		s, err := validator.Validate(c.Request.Context(), token)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierrors.NewInternalError("Failed to check session"))
			return
		}
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Authentication failed", err.Error()))
			return
		}

		c.Set(string(SESSION_KEY), s)
		c.Next()
	}
}

// GetSession returns the session set by SessionAuth, or nil
func GetSession(c *gin.Context) *session.Session {
	value, ok := c.Get(string(SESSION_KEY))
	if !ok {
		return nil
	}
	s, _ := value.(*session.Session)
	return s
}
