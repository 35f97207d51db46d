package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	t.Run("Round trip", func(t *testing.T) {
		token, err := m.GenerateAccessToken("user-1", "s@example.com")
		require.NoError(t, err)

		claims, err := m.ParseAndValidate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "s@example.com", claims.Email)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other", time.Minute).GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = m.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := NewJWTManager("secret", -5*time.Minute).GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = m.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("Within clock skew", func(t *testing.T) {
		token, err := NewJWTManager("secret", -10*time.Second).GenerateAccessToken("user-1", "")
		require.NoError(t, err)

		_, err = m.ParseAndValidate(token)
		assert.NoError(t, err)
	})

	t.Run("Audience", func(t *testing.T) {
		strict := NewJWTManager("secret", time.Minute, WithAudience("authenticated"))

		token, err := m.GenerateAccessToken("user-1", "")
		require.NoError(t, err)
		_, err = strict.ParseAndValidate(token)
		assert.Error(t, err, "token without aud")

		token, err = strict.GenerateAccessToken("user-1", "")
		require.NoError(t, err)
		claims, err := strict.ParseAndValidate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("No subject", func(t *testing.T) {
		token, err := m.GenerateAccessToken("", "")
		require.NoError(t, err)
		_, err = m.ParseAndValidate(token)
		assert.Error(t, err)
	})
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c)+"|"+GetUserEmail(c))
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	token, err := m.GenerateAccessToken("user-1", "s@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer ").Code)

	body := do("").Body.String()
	assert.Contains(t, body, "missing Authorization header")

	w := do("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1|s@example.com", w.Body.String())
}
