package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchops/backend/internal/application/authz"
	"github.com/churchops/backend/internal/infrastructure/auth"
	"github.com/churchops/backend/internal/infrastructure/config"
)

func newTestService(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-middleware-tests",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "church-identity",
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, societyID *uuid.UUID, capabilities ...string) string {
	t.Helper()
	token, _, err := svc.GenerateToken(auth.GenerateTokenInput{
		UserID:       uuid.New(),
		Username:     "tesorero",
		SocietyID:    societyID,
		Capabilities: capabilities,
	})
	require.NoError(t, err)
	return token
}

func newAuthRouter(svc *auth.JWTService, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	chain := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c)})
	})
	router.GET("/api/v1/treasury/boxes", chain...)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestService(t)
	router := newAuthRouter(svc)
	token := issueToken(t, svc, nil, authz.CapTreasuryRead)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/treasury/boxes", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	router := newAuthRouter(newTestService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/treasury/boxes", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_")
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	router := newAuthRouter(newTestService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/treasury/boxes", nil)
	req.Header.Set(AuthHeaderKey, "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_GarbageToken(t *testing.T) {
	router := newAuthRouter(newTestService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/treasury/boxes", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+"not.a.token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
}

func TestJWTAuthMiddleware_SkipPath(t *testing.T) {
	router := newAuthRouter(newTestService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetActor(t *testing.T) {
	svc := newTestService(t)
	societyID := uuid.New()
	token := issueToken(t, svc, &societyID, authz.CapTreasuryRead, authz.CapMovementCreate)

	var actor authz.Actor
	var found bool
	router := newAuthRouter(svc, func(c *gin.Context) {
		actor, found = GetActor(c)
		c.Next()
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/treasury/boxes", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	router.ServeHTTP(w, req)

	require.True(t, found)
	assert.NotEqual(t, uuid.Nil, actor.UserID)
	require.NotNil(t, actor.SocietyID)
	assert.Equal(t, societyID, *actor.SocietyID)
	assert.True(t, actor.Has(authz.CapMovementCreate))
	assert.False(t, actor.Has(authz.CapTitheDistribute))
}

func TestGetActor_NoClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, found := GetActor(c)
	assert.False(t, found)
}
