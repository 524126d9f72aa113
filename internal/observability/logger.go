package observability

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	base  *log.Logger
	level Level
}

func NewLogger(level Level) *Logger {
	return &Logger{base: log.New(os.Stdout, "", 0), level: level}
}

// Debug is gated behind LOG_LEVEL=debug; token claims and other sensitive
// diagnostics must only ever go through here.
func (l *Logger) Debug(message string, fields map[string]any) {
	if l.level > LevelDebug {
		return
	}
	l.write("debug", message, fields)
}

func (l *Logger) Info(message string, fields map[string]any) {
	if l.level > LevelInfo {
		return
	}
	l.write("info", message, fields)
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.write("error", message, fields)
}

func (l *Logger) write(level, message string, fields map[string]any) {
	payload := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"message":   message,
	}
	for k, v := range fields {
		payload[k] = v
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		l.base.Println(`{"level":"error","message":"failed to encode log"}`)
		return
	}

	l.base.Println(string(encoded))
}
