package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouterSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	treasury := NewDomainGroup("treasury", "/treasury")
	treasury.GET("/boxes", func(c *gin.Context) { c.Status(http.StatusOK) })

	NewRouter(engine, WithAPIVersion("v1")).Register(treasury).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/treasury/boxes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDomainGroupMiddlewareAndSubgroups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	var calls []string
	tithes := NewDomainGroup("tithes", "/tithes")
	tithes.Use(func(c *gin.Context) {
		calls = append(calls, "group")
		c.Next()
	})
	batches := tithes.Group("batches", "/batches")
	batches.POST("/:id/distribute", func(c *gin.Context) {
		calls = append(calls, "handler")
		c.Status(http.StatusOK)
	})

	NewRouter(engine).Register(tithes).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tithes/batches/b1/distribute", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"group", "handler"}, calls)
}

func TestDomainGroupAccessors(t *testing.T) {
	dg := NewDomainGroup("treasury", "/treasury")
	assert.Equal(t, "treasury", dg.Name())
	assert.Equal(t, "/treasury", dg.Prefix())
}
