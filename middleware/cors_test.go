package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/config"
	"github.com/stretchr/testify/assert"
)

func TestPermittedOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://ranch.example", "https://vet.example"}, permittedOrigins(" https://ranch.example, ,https://vet.example "))
	assert.Empty(t, permittedOrigins("*"))
	assert.Empty(t, permittedOrigins(""))
}

func TestCorsMiddlewareRestrictsOriginsWithAuthorization(t *testing.T) {
	gin.SetMode(gin.TestMode)
	configuration := &config.Configuration{Authorization: true, PermittedOrigin: "https://ranch.example"}
	engine := gin.New()
	engine.Use(CreateCorsMiddleware(configuration))
	engine.GET("/cattle", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := httptest.NewRequest(http.MethodGet, "/cattle", nil)
	request.Header.Set("Origin", "https://ranch.example")
	responseRecorder := httptest.NewRecorder()
	engine.ServeHTTP(responseRecorder, request)
	assert.Equal(t, http.StatusOK, responseRecorder.Code)
	assert.Equal(t, "https://ranch.example", responseRecorder.Header().Get("Access-Control-Allow-Origin"))

	request = httptest.NewRequest(http.MethodGet, "/cattle", nil)
	request.Header.Set("Origin", "https://elsewhere.example")
	responseRecorder = httptest.NewRecorder()
	engine.ServeHTTP(responseRecorder, request)
	assert.Equal(t, http.StatusForbidden, responseRecorder.Code)
}
