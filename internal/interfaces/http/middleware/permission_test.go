package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/churchops/backend/internal/application/authz"
	"github.com/churchops/backend/internal/infrastructure/auth"
)

func newCapabilityRouter(claims *auth.Claims, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(JWTClaimsKey, claims)
			c.Set(JWTUserIDKey, claims.UserID)
		}
		c.Next()
	})
	router.POST("/movements", guard, func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func claimsWith(capabilities ...string) *auth.Claims {
	return &auth.Claims{
		UserID:       "2a1c9cb2-5dc1-4f0e-8f4e-2c6a14a0b7de",
		Username:     "tesorero",
		Capabilities: capabilities,
	}
}

func TestRequireCapability_Granted(t *testing.T) {
	router := newCapabilityRouter(
		claimsWith(authz.CapMovementCreate),
		RequireCapability(authz.CapMovementCreate),
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRequireCapability_Denied(t *testing.T) {
	router := newCapabilityRouter(
		claimsWith(authz.CapTreasuryRead),
		RequireCapability(authz.CapMovementCreate),
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
}

func TestRequireCapability_NoClaims(t *testing.T) {
	router := newCapabilityRouter(nil, RequireCapability(authz.CapMovementCreate))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAnyCapability(t *testing.T) {
	router := newCapabilityRouter(
		claimsWith(authz.CapTitheRegister),
		RequireAnyCapability(authz.CapTitheRegister, authz.CapTitheEdit),
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHasCapability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(JWTClaimsKey, claimsWith(authz.CapTitheRead))

	assert.True(t, HasCapability(c, authz.CapTitheRead))
	assert.False(t, HasCapability(c, authz.CapTitheDistribute))
}
