package model

import (
	"fmt"
	"strings"
	"time"
)

type Level string // @Name Level

const (
	Error Level = "error"
	Warn  Level = "warn"
	Info  Level = "info"
	Debug Level = "debug"
	Trace Level = "trace"
)

// Severity orders levels from most (0) to least severe. Unknown levels rank as info.
func (l Level) Severity() int {
	switch l {
	case Error:
		return 0
	case Warn:
		return 1
	case Debug:
		return 3
	case Trace:
		return 4
	default:
		return 2
	}
}

func (l Level) String() string {
	return string(l)
}

func ParseLevel(value string) (Level, error) {
	switch level := Level(strings.ToLower(strings.TrimSpace(value))); level {
	case Error, Warn, Info, Debug, Trace:
		return level, nil
	case "warning":
		return Warn, nil
	}
	return Info, fmt.Errorf("unknown log level %q", value)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// RequestContext is the ambient request data the helpers copy into a record.
type RequestContext struct {
	UserID    string
	UserEmail string
	UserRole  string
	RequestID string
	Method    string
	Path      string
	IP        string
	UserAgent string
}

type LogRecord struct {
	Timestamp    time.Time              `json:"timestamp"`
	Level        Level                  `json:"level"`
	EventType    EventType              `json:"eventType"`
	Message      string                 `json:"message"`
	UserID       string                 `json:"userId,omitempty"`
	UserEmail    string                 `json:"userEmail,omitempty"`
	UserRole     string                 `json:"userRole,omitempty"`
	RequestID    string                 `json:"requestId,omitempty"`
	CattleID     string                 `json:"cattleId,omitempty"`
	CattleEarTag string                 `json:"cattleEarTag,omitempty"`
	Location     *Location              `json:"location,omitempty"`
	Method       string                 `json:"method,omitempty"`
	Path         string                 `json:"path,omitempty"`
	StatusCode   int                    `json:"statusCode,omitempty"`
	ResponseTime *time.Duration         `json:"responseTime,omitempty"`
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"userAgent,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	ErrorName    string                 `json:"errorName,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Stack        string                 `json:"stack,omitempty"`
}

// ApplyRequestContext copies every non-empty field of rc that the record does not set yet.
func (r *LogRecord) ApplyRequestContext(rc *RequestContext) {
	if rc == nil {
		return
	}
	fill := func(target *string, value string) {
		if *target == "" {
			*target = value
		}
	}
	fill(&r.UserID, rc.UserID)
	fill(&r.UserEmail, rc.UserEmail)
	fill(&r.UserRole, rc.UserRole)
	fill(&r.RequestID, rc.RequestID)
	fill(&r.Method, rc.Method)
	fill(&r.Path, rc.Path)
	fill(&r.IP, rc.IP)
	fill(&r.UserAgent, rc.UserAgent)
}

// ResponseTimeMs reports the response time in milliseconds and whether it was set.
func (r LogRecord) ResponseTimeMs() (float64, bool) {
	if r.ResponseTime == nil {
		return 0, false
	}
	return float64(*r.ResponseTime) / float64(time.Millisecond), true
}

func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

type SlowQuery struct {
	Query     string    `json:"query"`
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

type MetricsSnapshot struct {
	RequestCount        int64
	ErrorCount          int64
	AverageResponseTime float64
	ActiveUsers         map[string]struct{}
	PopularEndpoints    map[string]int64
	SlowQueries         []SlowQuery
}

func NewMetricsSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ActiveUsers:      make(map[string]struct{}),
		PopularEndpoints: make(map[string]int64),
		SlowQueries:      make([]SlowQuery, 0),
	}
}

// Clone returns a copy that shares no map or slice with s.
func (s MetricsSnapshot) Clone() MetricsSnapshot {
	clone := MetricsSnapshot{
		RequestCount:        s.RequestCount,
		ErrorCount:          s.ErrorCount,
		AverageResponseTime: s.AverageResponseTime,
		ActiveUsers:         make(map[string]struct{}, len(s.ActiveUsers)),
		PopularEndpoints:    make(map[string]int64, len(s.PopularEndpoints)),
		SlowQueries:         make([]SlowQuery, len(s.SlowQueries)),
	}
	for userID := range s.ActiveUsers {
		clone.ActiveUsers[userID] = struct{}{}
	}
	for path, hits := range s.PopularEndpoints {
		clone.PopularEndpoints[path] = hits
	}
	copy(clone.SlowQueries, s.SlowQueries)
	return clone
}

type Alert struct {
	Message      string    `json:"message"`
	EventType    EventType `json:"eventType"`
	UserEmail    string    `json:"userEmail,omitempty"`
	CattleEarTag string    `json:"cattleEarTag,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewAlert(record LogRecord) Alert {
	return Alert{
		Message:      record.Message,
		EventType:    record.EventType,
		UserEmail:    record.UserEmail,
		CattleEarTag: record.CattleEarTag,
		Timestamp:    record.Timestamp,
	}
}
