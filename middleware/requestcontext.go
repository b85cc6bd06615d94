package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/eventlog/model"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "RequestID"
)

// RequestID keeps an incoming X-Request-ID or assigns a fresh one, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// GetRequestContext collects the ambient request data for event records. Missing pieces stay empty.
func GetRequestContext(c *gin.Context) *model.RequestContext {
	rc := &model.RequestContext{
		RequestID: GetRequestID(c),
	}
	if c.Request != nil {
		rc.Method = c.Request.Method
		if c.Request.URL != nil {
			rc.Path = c.Request.URL.Path
		}
		rc.IP = c.ClientIP()
		rc.UserAgent = c.Request.UserAgent()
	}
	if user, ok := GetUser(c); ok {
		if user.UserID != uuid.Nil {
			rc.UserID = user.UserID.String()
		}
		rc.UserEmail = user.Email
		rc.UserRole = user.PrimaryRole().ToString()
	}
	return rc
}
