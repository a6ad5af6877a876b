package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceguard/internal/observability"
)

func newMiddlewareRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v1/upload", func(c *gin.Context) {
		c.PostForm("device_id")
		c.Status(http.StatusAccepted)
	})
	return r
}

func TestLoggingMiddleware_SkipsProbes(t *testing.T) {
	r := newMiddlewareRouter()
	before := testutil.CollectAndCount(observability.HTTPRequestDuration)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, before, testutil.CollectAndCount(observability.HTTPRequestDuration),
		"probe requests must not create latency series")
}

func TestLoggingMiddleware_ObservesRequests(t *testing.T) {
	r := newMiddlewareRouter()
	before := testutil.CollectAndCount(observability.HTTPRequestDuration)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload",
		strings.NewReader("device_id=cam1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, before+2, testutil.CollectAndCount(observability.HTTPRequestDuration))
}
