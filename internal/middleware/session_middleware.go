package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
)

// Context keys for session information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// SessionSource reports the signed-in user of the device session
type SessionSource interface {
	Current(ctx context.Context) (*model.SessionUser, bool)
}

type SessionMiddleware struct {
	sessions SessionSource
}

func NewSessionMiddleware(sessions SessionSource) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Attach puts the signed-in user into the gin context when there is one.
// Guests continue without user info.
func (m *SessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.sessions.Current(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		c.Set(UserIDKey, user.UserID)
		c.Set(UserEmailKey, user.Email)

		GetLoggerFromContext(c).Debug("Session attached", map[string]interface{}{
			"user_id": user.UserID,
		})

		c.Next()
	}
}

// RequireSession rejects guests with 401
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			if user, found := m.sessions.Current(c.Request.Context()); found {
				c.Set(UserIDKey, user.UserID)
				c.Set(UserEmailKey, user.Email)
				c.Next()
				return
			}
			GetLoggerFromContext(c).Warn("Session required", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "로그인이 필요합니다")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}
