package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSlowQueryCapacity = 100
	DefaultSlowThreshold     = 1000 * time.Millisecond
)

type MetricsRepository interface {
	Record(entry model.LogRecord)
	GetMetrics() model.MetricsSnapshot
	ResetMetrics()
}

type MetricsStorage struct {
	mutex             *sync.Mutex
	metrics           model.MetricsSnapshot
	slowQueryCapacity int
	slowThreshold     time.Duration
}

func NewMetricsRepository(slowQueryCapacity int, slowThreshold time.Duration) MetricsRepository {
	log.Trace().Msg("Creating new metrics repository")
	if slowQueryCapacity <= 0 {
		slowQueryCapacity = DefaultSlowQueryCapacity
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &MetricsStorage{
		mutex:             &sync.Mutex{},
		metrics:           model.NewMetricsSnapshot(),
		slowQueryCapacity: slowQueryCapacity,
		slowThreshold:     slowThreshold,
	}
}

func (s *MetricsStorage) Record(entry model.LogRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.metrics.RequestCount++

	if entry.UserID != "" {
		s.metrics.ActiveUsers[entry.UserID] = struct{}{}
	}
	if entry.Level == model.Error {
		s.metrics.ErrorCount++
	}
	if entry.Path != "" {
		s.metrics.PopularEndpoints[entry.Path]++
	}

	responseTimeMs, ok := entry.ResponseTimeMs()
	if !ok {
		return
	}
	// The sample size is the total record count, not the number of timed records.
	count := float64(s.metrics.RequestCount)
	s.metrics.AverageResponseTime = (s.metrics.AverageResponseTime*(count-1) + responseTimeMs) / count

	if *entry.ResponseTime > s.slowThreshold {
		timestamp := entry.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now().UTC()
		}
		s.metrics.SlowQueries = append(s.metrics.SlowQueries, model.SlowQuery{
			Query:     fmt.Sprintf("%s %s", entry.Method, entry.Path),
			Duration:  responseTimeMs,
			Timestamp: timestamp,
		})
		if len(s.metrics.SlowQueries) > s.slowQueryCapacity {
			s.metrics.SlowQueries = s.metrics.SlowQueries[1:]
		}
	}
}

func (s *MetricsStorage) GetMetrics() model.MetricsSnapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.metrics.Clone()
}

func (s *MetricsStorage) ResetMetrics() {
	log.Trace().Msg("Resetting metrics")
	s.mutex.Lock()
	s.metrics = model.NewMetricsSnapshot()
	s.mutex.Unlock()
}
