package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
)

var (
	ErrMissingToken = apperror.New(http.StatusUnauthorized, "missing Authorization header")
	ErrBadScheme    = apperror.New(http.StatusUnauthorized, "invalid Authorization header format")
	ErrInvalidToken = apperror.New(http.StatusUnauthorized, "invalid or expired token")
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", ErrBadScheme
	}
	return token, nil
}

// AuthRequired rejects requests without a valid provider token and stores the
// caller's id and email on the context.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseAndValidate(token)
		if err != nil {
			response.Error(c, ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(userEmailKey, claims.Email)

		c.Next()
	}
}
