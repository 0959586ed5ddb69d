package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-scm-api-server/internal/auth"
)

func newTestRouter(authSvc *auth.Service, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/")
	group.Use(Authenticate(authSvc))
	if len(roles) > 0 {
		group.Use(Authorize(roles...))
	}
	group.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserID),
			"role":    c.GetString(CtxUserRole),
		})
	})
	return router
}

func TestAuthenticate(t *testing.T) {
	authSvc := auth.NewService("test-secret", time.Hour)
	router := newTestRouter(authSvc)

	token, err := authSvc.GenerateToken("admin-12345678", "a@example.com", "Ana", "admin")
	require.NoError(t, err)

	t.Run("valid token passes identity through", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin-12345678")
		assert.Contains(t, w.Body.String(), "admin")
	})

	t.Run("missing header is 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})

	t.Run("non-bearer header is 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret is 401", func(t *testing.T) {
		otherSvc := auth.NewService("other-secret", time.Hour)
		otherToken, err := otherSvc.GenerateToken("admin-12345678", "a@example.com", "Ana", "admin")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthorize(t *testing.T) {
	authSvc := auth.NewService("test-secret", time.Hour)
	router := newTestRouter(authSvc, "super-admin", "admin")

	t.Run("allowed role passes", func(t *testing.T) {
		token, err := authSvc.GenerateToken("admin-12345678", "a@example.com", "Ana", "admin")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("excluded role is 403", func(t *testing.T) {
		token, err := authSvc.GenerateToken("agent-87654321", "b@example.com", "Bo", "agent")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
