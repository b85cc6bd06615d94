package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/rs/zerolog"
)

type Mode string // @Name Mode

const (
	Development Mode = "development"
	Production  Mode = "production"
)

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(value))); mode {
	case Development, Production:
		return mode, nil
	case "dev":
		return Development, nil
	case "prod", "":
		return Production, nil
	}
	return Production, fmt.Errorf("unknown event log mode %q", value)
}

const timestampLayout = time.RFC3339Nano

// Format renders one record; development gives annotated multi-line text, production one JSON line.
func Format(record model.LogRecord, mode Mode) (line string) {
	defer func() {
		if r := recover(); r != nil {
			line = fallbackLine(record, fmt.Sprint(r))
		}
	}()
	if mode == Development {
		return formatDevelopment(record)
	}
	return formatProduction(record)
}

func fallbackLine(record model.LogRecord, reason string) string {
	return fmt.Sprintf("%s %s %s: %s (format failed: %s)",
		record.Timestamp.UTC().Format(timestampLayout), record.Level, record.EventType.Label(), record.Message, reason)
}

func formatProduction(record model.LogRecord) string {
	var buffer bytes.Buffer
	logger := zerolog.New(&buffer)
	event := logger.Log().
		Str("timestamp", record.Timestamp.UTC().Format(timestampLayout)).
		Str("level", record.Level.String()).
		Str("eventType", record.EventType.Label())

	optional := func(key, value string) {
		if value != "" {
			event.Str(key, value)
		}
	}
	optional("userId", record.UserID)
	optional("userEmail", record.UserEmail)
	optional("userRole", record.UserRole)
	optional("requestId", record.RequestID)
	optional("cattleId", record.CattleID)
	optional("cattleEarTag", record.CattleEarTag)
	if record.Location != nil {
		event.Dict("location", zerolog.Dict().
			Float64("latitude", record.Location.Latitude).
			Float64("longitude", record.Location.Longitude).
			Str("address", record.Location.Address))
	}
	optional("method", record.Method)
	optional("path", record.Path)
	if record.StatusCode != 0 {
		event.Int("statusCode", record.StatusCode)
	}
	if responseTimeMs, ok := record.ResponseTimeMs(); ok {
		event.Float64("responseTime", responseTimeMs)
	}
	optional("ip", record.IP)
	optional("userAgent", record.UserAgent)
	if len(record.Metadata) > 0 {
		event.Interface("metadata", record.Metadata)
	}
	optional("errorName", record.ErrorName)
	optional("error", record.Error)
	optional("stack", record.Stack)
	event.Msg(record.Message)

	if buffer.Len() == 0 {
		return fallbackLine(record, "encoder disabled")
	}
	return strings.TrimRight(buffer.String(), "\n")
}

func formatDevelopment(record model.LogRecord) string {
	glyph := record.EventType.Glyph()
	if record.Level == model.Error || record.Level == model.Warn {
		glyph = model.LevelGlyph(record.Level)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s [%s] %s %s: %s", glyph, record.Timestamp.UTC().Format(timestampLayout),
		strings.ToUpper(record.Level.String()), record.EventType.Label(), record.Message)

	section := func(name, format string, args ...interface{}) {
		fmt.Fprintf(&builder, "\n    %s: %s", name, fmt.Sprintf(format, args...))
	}

	if record.UserID != "" || record.UserEmail != "" {
		section("user", "%s", joinNonEmpty(record.UserEmail, bracket("id", record.UserID), bracket("role", record.UserRole)))
	}
	if record.RequestID != "" {
		section("request", "%s", record.RequestID)
	}
	if record.CattleID != "" || record.CattleEarTag != "" {
		section("cattle", "%s", joinNonEmpty(record.CattleEarTag, bracket("id", record.CattleID)))
	}
	if record.Location != nil {
		section("location", "%.6f, %.6f%s", record.Location.Latitude, record.Location.Longitude, optionalSuffix(record.Location.Address))
	}
	if record.Method != "" || record.Path != "" {
		http := strings.TrimSpace(record.Method + " " + record.Path)
		if record.StatusCode != 0 {
			http += fmt.Sprintf(" -> %d", record.StatusCode)
		}
		if responseTimeMs, ok := record.ResponseTimeMs(); ok {
			http += fmt.Sprintf(" in %.2fms", responseTimeMs)
		}
		section("http", "%s", http)
	}
	if record.IP != "" || record.UserAgent != "" {
		section("client", "%s", joinNonEmpty(record.IP, record.UserAgent))
	}
	if len(record.Metadata) > 0 {
		section("metadata", "%s", renderMetadata(record.Metadata))
	}
	if record.Error != "" {
		section("error", "%s", joinNonEmpty(record.ErrorName+":", record.Error))
	}
	if record.Stack != "" {
		builder.WriteString("\n    stack:")
		for _, stackLine := range strings.Split(strings.TrimRight(record.Stack, "\n"), "\n") {
			builder.WriteString("\n      ")
			builder.WriteString(strings.TrimSpace(stackLine))
		}
	}
	return builder.String()
}

func renderMetadata(metadata map[string]interface{}) string {
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Sprintf("<unencodable metadata: %s>", err.Error())
	}
	return string(encoded)
}

func bracket(name, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("(%s=%s)", name, value)
}

func optionalSuffix(value string) string {
	if value == "" {
		return ""
	}
	return " (" + value + ")"
}

func joinNonEmpty(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != ":" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}
