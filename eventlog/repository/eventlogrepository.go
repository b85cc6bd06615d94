package repository

import (
	"sync"

	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/rs/zerolog/log"
)

type EventLogRepository interface {
	CreateEvent(entity model.LogRecord)
	LoadEvents(cattleID string) []model.LogRecord
	LoadRecent(limit int) []model.LogRecord
}

// EventLogStorage keeps the newest records first and drops the oldest once size is reached.
type EventLogStorage struct {
	mutex  *sync.Mutex
	events []*model.LogRecord
	size   int
}

func NewEventLogRepository(size int) EventLogRepository {
	log.Trace().Msg("Creating new event log repository")
	if size <= 0 {
		size = 1
	}
	return &EventLogStorage{
		mutex:  &sync.Mutex{},
		events: make([]*model.LogRecord, 0, size),
		size:   size,
	}
}

func (s *EventLogStorage) CreateEvent(entity model.LogRecord) {
	s.store(&entity)
}

func (s *EventLogStorage) LoadEvents(cattleID string) []model.LogRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	events := make([]model.LogRecord, 0)
	if cattleID == "" {
		return events
	}
	for _, event := range s.events {
		if event != nil && event.CattleID == cattleID {
			events = append(events, *event)
		}
	}
	return events
}

func (s *EventLogStorage) LoadRecent(limit int) []model.LogRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	events := make([]model.LogRecord, 0, limit)
	for i := 0; i < limit; i++ {
		if s.events[i] != nil {
			events = append(events, *s.events[i])
		}
	}
	return events
}

func (s *EventLogStorage) store(event *model.LogRecord) {
	s.mutex.Lock()
	if len(s.events) < s.size {
		s.events = append(s.events, nil)
	}
	copy(s.events[1:], s.events)
	s.events[0] = event
	s.mutex.Unlock()
}
