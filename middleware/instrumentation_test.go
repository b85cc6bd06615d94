package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	timeout "github.com/vearne/gin-timeout"
)

func newInstrumentedEngine(recorder EventRecorder, status int) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), RequestLogger(recorder))
	engine.GET("/v1/cattle/:cattleId", func(c *gin.Context) {
		c.String(status, "hello")
	})
	return engine
}

func TestRequestLoggerLogsEntryAndExitOnce(t *testing.T) {
	logger := &eventLoggerMock{}
	engine := newInstrumentedEngine(logger, http.StatusOK)

	request := httptest.NewRequest(http.MethodGet, "/v1/cattle/c-1", nil)
	request.Header.Set(RequestIDHeader, "req-42")
	responseRecorder := httptest.NewRecorder()
	engine.ServeHTTP(responseRecorder, request)

	require.Len(t, logger.records, 2)
	entering, exiting := logger.records[0], logger.records[1]

	assert.Equal(t, model.Debug, entering.Level)
	assert.Equal(t, model.EventHTTPRequest, entering.EventType)
	assert.Equal(t, "--> GET /v1/cattle/c-1", entering.Message)
	assert.Equal(t, "req-42", entering.RequestID)
	assert.Empty(t, entering.Path)
	assert.Nil(t, entering.ResponseTime)

	assert.Equal(t, model.Info, exiting.Level)
	assert.Equal(t, http.StatusOK, exiting.StatusCode)
	assert.Equal(t, "/v1/cattle/c-1", exiting.Path)
	assert.Equal(t, "req-42", exiting.RequestID)
	require.NotNil(t, exiting.ResponseTime)
	assert.Equal(t, 5, exiting.Metadata["responseSize"])
	assert.Equal(t, "req-42", responseRecorder.Header().Get(RequestIDHeader))
}

func TestRequestLoggerExitLevelFollowsStatus(t *testing.T) {
	for status, level := range map[int]model.Level{
		http.StatusCreated:             model.Info,
		http.StatusNotFound:            model.Warn,
		http.StatusInternalServerError: model.Error,
	} {
		logger := &eventLoggerMock{}
		engine := newInstrumentedEngine(logger, status)

		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cattle/c-1", nil))

		require.Len(t, logger.records, 2)
		assert.Equal(t, level, logger.records[1].Level, "status %d", status)
	}
}

func TestRequestIDIsGeneratedWhenMissing(t *testing.T) {
	logger := &eventLoggerMock{}
	engine := newInstrumentedEngine(logger, http.StatusOK)

	responseRecorder := httptest.NewRecorder()
	engine.ServeHTTP(responseRecorder, httptest.NewRequest(http.MethodGet, "/v1/cattle/c-1", nil))

	generated := responseRecorder.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, logger.records[1].RequestID)
}

func TestRequestLoggerCarriesErrorsRecordedBehindTimeout(t *testing.T) {
	logger := &eventLoggerMock{}
	engine := gin.New()
	engine.Use(RequestID(), RequestLogger(logger))
	engine.GET("/v1/cattle/:cattleId", timeout.Timeout(timeout.WithTimeout(2*time.Second)), func(c *gin.Context) {
		RecordError(c, errors.New("connection refused"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrInternalServerError)
	})

	responseRecorder := httptest.NewRecorder()
	engine.ServeHTTP(responseRecorder, httptest.NewRequest(http.MethodGet, "/v1/cattle/c-1", nil))

	assert.Equal(t, http.StatusInternalServerError, responseRecorder.Code)
	require.Len(t, logger.records, 2)
	exiting := logger.records[1]
	assert.Equal(t, model.Error, exiting.Level)
	assert.Equal(t, http.StatusInternalServerError, exiting.StatusCode)
	assert.Contains(t, exiting.Error, "connection refused")
}

func TestRequestLoggerCarriesErrorsWithoutTimeout(t *testing.T) {
	logger := &eventLoggerMock{}
	engine := gin.New()
	engine.Use(RequestLogger(logger))
	engine.GET("/v1/metrics", func(c *gin.Context) {
		RecordError(c, errors.New("redis unavailable"))
		c.AbortWithStatus(http.StatusInternalServerError)
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))

	require.Len(t, logger.records, 2)
	assert.Contains(t, logger.records[1].Error, "redis unavailable")
}
