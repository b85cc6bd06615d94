package model

import "strings"

type EventType string // @Name EventType

const (
	EventCattleCreated      EventType = "cattle_created"
	EventCattleUpdated      EventType = "cattle_updated"
	EventCattleDeleted      EventType = "cattle_deleted"
	EventCattleViewed       EventType = "cattle_viewed"
	EventLocationChange     EventType = "location_change"
	EventVaccination        EventType = "vaccination"
	EventTreatment          EventType = "treatment"
	EventDiagnosis          EventType = "diagnosis"
	EventCheckup            EventType = "checkup"
	EventVeterinaryActivity EventType = "veterinary_activity"
	EventFeeding            EventType = "feeding"
	EventBreeding           EventType = "breeding"
	EventBirth              EventType = "birth"
	EventInventoryUpdate    EventType = "inventory_update"
	EventMedicineStockLow   EventType = "medicine_stock_low"
	EventUserLogin          EventType = "user_login"
	EventUserLogout         EventType = "user_logout"
	EventHTTPRequest        EventType = "http_request"
	EventSystemError        EventType = "system_error"
	EventSystem             EventType = "system"
	EventUnknown            EventType = "unknown"
)

// AuditEventType builds the "{operation}_{resource}" event of the audit trail.
func AuditEventType(operation, resource string) EventType {
	return EventType(strings.ToLower(operation) + "_" + resource)
}

// Category folds every event type, including audit and unknown ones, onto a known variant.
func (e EventType) Category() EventType {
	switch e {
	case EventCattleCreated, EventCattleUpdated, EventCattleDeleted, EventCattleViewed,
		EventLocationChange, EventVaccination, EventTreatment, EventDiagnosis, EventCheckup,
		EventVeterinaryActivity, EventFeeding, EventBreeding, EventBirth, EventInventoryUpdate,
		EventMedicineStockLow, EventUserLogin, EventUserLogout, EventHTTPRequest, EventSystemError,
		EventSystem:
		return e
	}
	return EventUnknown
}

func (e EventType) Glyph() string {
	switch e.Category() {
	case EventCattleCreated:
		return "🐄"
	case EventCattleUpdated:
		return "✏️"
	case EventCattleDeleted:
		return "🗑️"
	case EventCattleViewed:
		return "👀"
	case EventLocationChange:
		return "📍"
	case EventVaccination:
		return "💉"
	case EventTreatment:
		return "💊"
	case EventDiagnosis:
		return "🩺"
	case EventCheckup:
		return "📋"
	case EventVeterinaryActivity:
		return "⚕️"
	case EventFeeding:
		return "🌾"
	case EventBreeding:
		return "💕"
	case EventBirth:
		return "🐮"
	case EventInventoryUpdate:
		return "📦"
	case EventMedicineStockLow:
		return "⚠️"
	case EventUserLogin:
		return "🔑"
	case EventUserLogout:
		return "🚪"
	case EventHTTPRequest:
		return "🌐"
	case EventSystemError:
		return "💥"
	case EventSystem:
		return "⚙️"
	default:
		return "📝"
	}
}

func (e EventType) Label() string {
	if e == "" {
		return string(EventUnknown)
	}
	return string(e)
}

// LevelGlyph is used when the level outranks the event category, e.g. for failures.
func LevelGlyph(level Level) string {
	switch level {
	case Error:
		return "❌"
	case Warn:
		return "⚠️"
	case Debug:
		return "🔍"
	case Trace:
		return "🔬"
	default:
		return "ℹ️"
	}
}
