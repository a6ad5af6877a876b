package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func doRequest(token, header string) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TokenMiddleware(token))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("X-Auth-Token", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestTokenMiddleware(t *testing.T) {
	assert.Equal(t, http.StatusOK, doRequest("", ""), "empty token disables auth")
	assert.Equal(t, http.StatusOK, doRequest("secret", "secret"))
	assert.Equal(t, http.StatusUnauthorized, doRequest("secret", ""))
	assert.Equal(t, http.StatusForbidden, doRequest("secret", "wrong"))
}
