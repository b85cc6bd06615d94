package service

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type VetActivity string // @Name VetActivity

const (
	Diagnosis   VetActivity = "diagnosis"
	Treatment   VetActivity = "treatment"
	Vaccination VetActivity = "vaccination"
	Checkup     VetActivity = "checkup"
)

func (v VetActivity) EventType() model.EventType {
	switch v {
	case Diagnosis:
		return model.EventDiagnosis
	case Treatment:
		return model.EventTreatment
	case Vaccination:
		return model.EventVaccination
	case Checkup:
		return model.EventCheckup
	default:
		return model.EventVeterinaryActivity
	}
}

func (v VetActivity) IsValid() bool {
	return v.EventType() != model.EventVeterinaryActivity
}

// CattleRef identifies the animal an event is about; both fields are optional.
type CattleRef struct {
	ID     string
	EarTag string
}

// Broadcaster receives every record that names an animal.
type Broadcaster interface {
	Send(records ...model.LogRecord)
}

type Options struct {
	Mode     Mode
	MinLevel model.Level
	Output   io.Writer
}

type EventLogService interface {
	Record(record model.LogRecord)
	LogCattleEvent(eventType model.EventType, message string, rc *model.RequestContext, metadata map[string]interface{})
	LogCattleError(err error, rc *model.RequestContext, extra map[string]interface{})
	LogVeterinaryActivity(activity VetActivity, cattle CattleRef, details map[string]interface{}, rc *model.RequestContext, location *model.Location)
	LogLocationChange(cattle CattleRef, from, to *model.Location, rc *model.RequestContext, reason string)
	LogMessage(level model.Level, eventType model.EventType, message string, metadata map[string]interface{})
	GetMetrics() model.MetricsSnapshot
	ResetMetrics()
	GetCattleEvents(cattleID string) []model.LogRecord
	GetRecentEvents(limit int) []model.LogRecord
}

type eventLogService struct {
	mode               Mode
	threshold          model.Level
	output             io.Writer
	metricsRepository  repository.MetricsRepository
	eventLogRepository repository.EventLogRepository
	alertNotifier      AlertNotifier
	broadcaster        Broadcaster
}

// NewEventLogService wires the logging pipeline. alertNotifier and broadcaster may be nil.
func NewEventLogService(options Options, metricsRepository repository.MetricsRepository, eventLogRepository repository.EventLogRepository,
	alertNotifier AlertNotifier, broadcaster Broadcaster) EventLogService {
	log.Trace().Msg("Creating new event log service")
	output := options.Output
	if output == nil {
		output = os.Stdout
	}
	if options.Mode == "" {
		options.Mode = Production
	}
	return &eventLogService{
		mode:               options.Mode,
		threshold:          consoleThreshold(options),
		output:             newLockedWriter(output),
		metricsRepository:  metricsRepository,
		eventLogRepository: eventLogRepository,
		alertNotifier:      alertNotifier,
		broadcaster:        broadcaster,
	}
}

func consoleThreshold(options Options) model.Level {
	minLevel := options.MinLevel
	if minLevel == "" {
		minLevel = model.Info
	}
	if minLevel == model.Trace {
		return model.Trace
	}
	if options.Mode == Development && minLevel.Severity() < model.Debug.Severity() {
		return model.Debug
	}
	return minLevel
}

func (s *eventLogService) consoleEnabled(level model.Level) bool {
	return level.Severity() <= s.threshold.Severity()
}

// Record never panics into the caller; logging must not break the observed operation.
func (s *eventLogService) Record(record model.LogRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("eventType", string(record.EventType)).Msg("Recording event failed")
		}
	}()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.Level == "" {
		record.Level = model.Info
	}
	if record.EventType == "" {
		record.EventType = model.EventUnknown
	}

	s.metricsRepository.Record(record)
	s.eventLogRepository.CreateEvent(record)

	if s.consoleEnabled(record.Level) {
		_, _ = io.WriteString(s.output, Format(record, s.mode)+"\n")
	}
	if record.Level == model.Error && s.alertNotifier != nil {
		s.alertNotifier.Notify(record)
	}
	if record.CattleID != "" && s.broadcaster != nil {
		s.broadcaster.Send(record)
	}
}

// LogCattleEvent records an info event. The metadata keys "cattleId" and "earTag" are lifted
// into the record's cattle fields.
func (s *eventLogService) LogCattleEvent(eventType model.EventType, message string, rc *model.RequestContext, metadata map[string]interface{}) {
	record := model.LogRecord{
		Level:     model.Info,
		EventType: eventType,
		Message:   message,
		Metadata:  metadata,
	}
	liftCattleFields(&record, metadata)
	record.ApplyRequestContext(rc)
	s.Record(record)
}

func (s *eventLogService) LogCattleError(err error, rc *model.RequestContext, extra map[string]interface{}) {
	record := model.LogRecord{
		Level:     model.Error,
		EventType: model.EventSystemError,
		Message:   "unknown error",
		Metadata:  extra,
	}
	if err != nil {
		record.Message = err.Error()
		record.Error = err.Error()
		record.ErrorName = errorName(err)
		record.Stack = errorStack(err)
	}
	liftCattleFields(&record, extra)
	record.ApplyRequestContext(rc)
	s.Record(record)
}

func (s *eventLogService) LogVeterinaryActivity(activity VetActivity, cattle CattleRef, details map[string]interface{}, rc *model.RequestContext, location *model.Location) {
	metadata := make(map[string]interface{}, len(details)+1)
	for key, value := range details {
		metadata[key] = value
	}
	metadata["activity"] = string(activity)

	record := model.LogRecord{
		Level:        model.Info,
		EventType:    activity.EventType(),
		Message:      fmt.Sprintf("Veterinary %s recorded for cattle %s", activity, cattle.EarTag),
		CattleID:     cattle.ID,
		CattleEarTag: cattle.EarTag,
		Location:     location,
		Metadata:     metadata,
	}
	record.ApplyRequestContext(rc)
	s.Record(record)
}

func (s *eventLogService) LogLocationChange(cattle CattleRef, from, to *model.Location, rc *model.RequestContext, reason string) {
	metadata := map[string]interface{}{
		"reason": reason,
	}
	if from != nil {
		metadata["from"] = *from
	}
	if to != nil {
		metadata["to"] = *to
	}

	message := fmt.Sprintf("Cattle %s changed location", cattle.EarTag)
	distance := HaversineDistance(from, to)
	if math.IsNaN(distance) {
		metadata["distanceKm"] = "unknown"
	} else {
		metadata["distanceKm"] = math.Round(distance*100) / 100
		message = fmt.Sprintf("Cattle %s moved %.2f km", cattle.EarTag, distance)
	}

	record := model.LogRecord{
		Level:        model.Info,
		EventType:    model.EventLocationChange,
		Message:      message,
		CattleID:     cattle.ID,
		CattleEarTag: cattle.EarTag,
		Location:     to,
		Metadata:     metadata,
	}
	record.ApplyRequestContext(rc)
	s.Record(record)
}

func (s *eventLogService) LogMessage(level model.Level, eventType model.EventType, message string, metadata map[string]interface{}) {
	record := model.LogRecord{
		Level:     level,
		EventType: eventType,
		Message:   message,
		Metadata:  metadata,
	}
	liftCattleFields(&record, metadata)
	s.Record(record)
}

func (s *eventLogService) GetMetrics() model.MetricsSnapshot {
	return s.metricsRepository.GetMetrics()
}

func (s *eventLogService) ResetMetrics() {
	s.metricsRepository.ResetMetrics()
}

func (s *eventLogService) GetCattleEvents(cattleID string) []model.LogRecord {
	return s.eventLogRepository.LoadEvents(cattleID)
}

func (s *eventLogService) GetRecentEvents(limit int) []model.LogRecord {
	return s.eventLogRepository.LoadRecent(limit)
}

func liftCattleFields(record *model.LogRecord, metadata map[string]interface{}) {
	if cattleID, ok := metadata["cattleId"].(string); ok {
		record.CattleID = cattleID
	}
	if earTag, ok := metadata["earTag"].(string); ok {
		record.CattleEarTag = earTag
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func errorName(err error) string {
	name := fmt.Sprintf("%T", errors.Cause(err))
	return strings.TrimPrefix(name, "*")
}

func errorStack(err error) string {
	var tracer stackTracer
	if errors.As(err, &tracer) {
		return strings.TrimLeft(fmt.Sprintf("%+v", tracer.StackTrace()), "\n")
	}
	return string(debug.Stack())
}

type lockedWriter struct {
	mutex  sync.Mutex
	writer io.Writer
}

func newLockedWriter(writer io.Writer) io.Writer {
	if writer == nil {
		writer = os.Stderr
	}
	return &lockedWriter{writer: writer}
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.Write(p)
}
