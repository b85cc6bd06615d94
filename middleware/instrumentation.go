package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/eventlog/model"
)

type EventRecorder interface {
	Record(record model.LogRecord)
}

const requestErrorsKey = "requestErrors"

// requestErrors collects handler errors through the shared Keys map, which survives the
// context copy made by the timeout middleware while c.Errors does not.
type requestErrors struct {
	mu       sync.Mutex
	messages []string
}

func (e *requestErrors) add(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, err.Error())
}

func (e *requestErrors) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.messages, "; ")
}

// RecordError attaches err to the request so the exit record of RequestLogger carries it.
func RecordError(c *gin.Context, err error) {
	_ = c.Error(err)
	if value, ok := c.Get(requestErrorsKey); ok {
		if collected, ok := value.(*requestErrors); ok {
			collected.add(err)
		}
	}
}

// RequestLogger logs every request twice: a debug record on entry and one record on exit carrying
// status, elapsed time and response size.
func RequestLogger(recorder EventRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rc := GetRequestContext(c)

		entering := model.LogRecord{
			Level:     model.Debug,
			EventType: model.EventHTTPRequest,
			Message:   fmt.Sprintf("--> %s %s", rc.Method, rc.Path),
			RequestID: rc.RequestID,
			Method:    rc.Method,
			IP:        rc.IP,
			UserAgent: rc.UserAgent,
		}
		recorder.Record(entering)

		collected := &requestErrors{}
		c.Set(requestErrorsKey, collected)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		rc = GetRequestContext(c)

		exiting := model.LogRecord{
			Level:        exitLevel(status),
			EventType:    model.EventHTTPRequest,
			Message:      fmt.Sprintf("<-- %s %s %d", rc.Method, rc.Path, status),
			StatusCode:   status,
			ResponseTime: model.DurationPtr(elapsed),
			Metadata: map[string]interface{}{
				"responseSize": responseSize(c),
			},
		}
		if len(c.Errors) > 0 {
			exiting.Error = c.Errors.String()
		} else if message := collected.String(); message != "" {
			exiting.Error = message
		}
		exiting.ApplyRequestContext(rc)
		recorder.Record(exiting)
	}
}

func exitLevel(status int) model.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return model.Error
	case status >= http.StatusBadRequest:
		return model.Warn
	default:
		return model.Info
	}
}

func responseSize(c *gin.Context) int {
	size := c.Writer.Size()
	if size < 0 {
		return 0
	}
	return size
}
