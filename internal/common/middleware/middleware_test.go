package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
)

func newTestRouter(m *auth.JWTManager, roles ...auth.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(zap.NewNop()), middleware.RequestIDMiddleware())
	r.GET("/test", middleware.AuthMiddleware(m), middleware.RequireRole(roles...), func(c *gin.Context) {
		id, _ := middleware.GetUserID(c)
		c.String(http.StatusOK, id.String())
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAuth_MissingHeader(t *testing.T) {
	m := auth.NewJWTManager("s", "i", time.Minute, time.Hour)
	w := httptest.NewRecorder()
	newTestRouter(m, auth.RoleCustomer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidTokenAndRole(t *testing.T) {
	m := auth.NewJWTManager("s", "i", time.Minute, time.Hour)
	userID := uuid.New()
	token, err := m.GenerateAccessToken(userID, auth.RoleCustomer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newTestRouter(m, auth.RoleCustomer, auth.RoleAdmin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAuth_WrongRole(t *testing.T) {
	m := auth.NewJWTManager("s", "i", time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(uuid.New(), auth.RoleCustomer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newTestRouter(m, auth.RoleAdmin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	m := auth.NewJWTManager("s", "i", time.Minute, time.Hour)
	w := httptest.NewRecorder()
	newTestRouter(m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
