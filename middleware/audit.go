package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/rs/zerolog/log"
)

const maxAuditBodyBytes = 64 << 10

type AuditLogger interface {
	LogCattleEvent(eventType model.EventType, message string, rc *model.RequestContext, metadata map[string]interface{})
}

// AuditTrail logs "{operation}_{resource}" once the wrapped handlers answered with a 2xx status.
// For UPDATE the request body is attached as "changes".
func AuditTrail(logger AuditLogger, operation, resource string) gin.HandlerFunc {
	operation = strings.ToUpper(operation)
	eventType := model.AuditEventType(operation, resource)

	return func(c *gin.Context) {
		var changes interface{}
		if operation == "UPDATE" {
			changes = captureBody(c)
		}

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status > 299 {
			return
		}

		metadata := map[string]interface{}{
			"operation":  operation,
			"resource":   resource,
			"statusCode": status,
		}
		if changes != nil {
			metadata["changes"] = changes
		}
		for _, param := range c.Params {
			metadata[param.Key] = param.Value
		}

		logger.LogCattleEvent(eventType, "Audit: "+operation+" "+resource, GetRequestContext(c), metadata)
	}
}

// captureBody reads the request body and puts it back for the handler.
func captureBody(c *gin.Context) interface{} {
	if c.Request == nil || c.Request.Body == nil {
		return nil
	}
	body, err := io.ReadAll(c.Request.Body)
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read request body for audit trail")
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	if len(body) > maxAuditBodyBytes {
		return map[string]interface{}{"truncated": true, "size": len(body)}
	}
	var changes interface{}
	if err := json.Unmarshal(body, &changes); err != nil {
		return string(body)
	}
	return changes
}
