package models

import "time"

// LogLevel is the severity of a [LogEntry].
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is one line of the append-only sync log. The log exists for
// operators; nothing in the data layer reads it back to make decisions.
type LogEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
