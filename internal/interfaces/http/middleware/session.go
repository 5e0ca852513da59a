package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionUserKey  = "session_user"
	SessionTokenKey = "session_token"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

type sessionUserCtxKey struct{}

// SessionResolver turns a session token into the signed-in user.
// *identity.AuthService implements it.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*identity.User, error)
}

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	Resolver   SessionResolver
	CookieName string
	Logger     *zap.Logger
}

// SessionLoader resolves the session cookie (or a Bearer token, for API
// clients) to a user and stores it in the gin and request contexts. Requests
// without a valid session continue anonymously.
func SessionLoader(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cfg.CookieName)
		if token == "" || cfg.Resolver == nil {
			c.Next()
			return
		}

		user, err := cfg.Resolver.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Debug("Session not resolved",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
			}
			c.Next()
			return
		}

		c.Set(SessionUserKey, user)
		c.Set(SessionTokenKey, token)

		ctx := context.WithValue(c.Request.Context(), sessionUserCtxKey{}, user)
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), user.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireSession rejects requests that SessionLoader left anonymous
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSessionUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Not authenticated",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}

// GetSessionUser returns the signed-in user, or nil
func GetSessionUser(c *gin.Context) *identity.User {
	if v, ok := c.Get(SessionUserKey); ok {
		if u, ok := v.(*identity.User); ok {
			return u
		}
	}
	return nil
}

// GetSessionToken returns the raw token SessionLoader accepted, or ""
func GetSessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}

// UserFromContext returns the signed-in user stored in a request context
func UserFromContext(ctx context.Context) *identity.User {
	u, _ := ctx.Value(sessionUserCtxKey{}).(*identity.User)
	return u
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	if h := c.GetHeader(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
		return strings.TrimPrefix(h, BearerPrefix)
	}
	return ""
}
