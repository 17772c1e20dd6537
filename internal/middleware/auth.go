package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gatherly/internal/repository"
	"gatherly/internal/service"
)

// Auth validates the bearer token through the auth service and stashes the
// resolved user and claims on the context for downstream handlers.
func Auth(auth *service.AuthService, sessions *repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		user, claims, err := auth.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			status := http.StatusUnauthorized
			code := "invalid_token"
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				code = "session_expired"
			case errors.Is(err, service.ErrUserSuspended):
				status = http.StatusForbidden
				code = "user_inactive"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": code})
			return
		}

		_ = sessions.Touch(c.Request.Context(), claims.SessionID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set("access_token", tokenStr)
		c.Set("access_claims", *claims)
		c.Set("current_user", user)

		c.Next()
	}
}
