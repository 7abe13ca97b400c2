package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type LogEntry struct {
	Ts        string                 `json:"ts"`
	Level     string                 `json:"level"`
	LogType   string                 `json:"log_type"`
	Component string                 `json:"component"`
	Msg       string                 `json:"msg"`
	RunID     string                 `json:"run_id,omitempty"`
	Vars      map[string]interface{} `json:"vars,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger writes one JSON object per line. A nil *Logger drops everything.
// Set fields through the Set* methods once the logger is shared.
type Logger struct {
	mu             sync.Mutex
	std            *log.Logger
	file           *os.File
	Component      string
	DefaultLogType string
	MinLevel       string
	RunID          string
	// ConsolePrint echoes Msg to stdout in addition to the JSON line.
	ConsolePrint bool
}

// New writes to filePath when given, otherwise to out.
func New(component string, out io.Writer, filePath string) *Logger {
	var f *os.File
	mw := out
	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "logger: failed mkdir for %s: %v\n", filePath, err)
		} else if file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "logger: failed open file %s: %v\n", filePath, err)
		} else {
			f = file
			mw = f
		}
	}
	if mw == nil {
		mw = io.Discard
	}
	return &Logger{
		std:       log.New(mw, "", 0),
		file:      f,
		Component: component,
		MinLevel:  LevelInfo,
	}
}

// With returns a logger sharing l's sink under another component name.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		std:            l.std,
		Component:      component,
		DefaultLogType: l.DefaultLogType,
		MinLevel:       l.MinLevel,
		RunID:          l.RunID,
		ConsolePrint:   l.ConsolePrint,
	}
}

func (l *Logger) Emit(entry LogEntry) {
	if l == nil {
		return
	}
	if entry.Level == "" {
		entry.Level = LevelInfo
	}
	l.mu.Lock()
	enabled := l.enabled(entry.Level)
	component, logType, runID, console := l.Component, l.DefaultLogType, l.RunID, l.ConsolePrint
	l.mu.Unlock()
	if !enabled {
		return
	}
	if entry.Ts == "" {
		entry.Ts = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if entry.Component == "" {
		entry.Component = component
	}
	if entry.LogType == "" && logType != "" {
		entry.LogType = logType
	}
	if entry.RunID == "" {
		entry.RunID = runID
	}
	if console {
		fmt.Fprintln(os.Stdout, entry.Msg)
	}
	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: marshal error: %v\n", err)
		return
	}
	l.std.Print(string(b))
}

// Enabled reports whether entries at level pass MinLevel.
func (l *Logger) Enabled(level string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled(level)
}

func (l *Logger) enabled(level string) bool {
	floor, ok := levelRank[l.MinLevel]
	if !ok {
		floor = levelRank[LevelInfo]
	}
	return levelRank[level] >= floor
}

func (l *Logger) Debug(msg string, vars map[string]interface{}) {
	l.Emit(LogEntry{Level: LevelDebug, Msg: msg, Vars: vars})
}

func (l *Logger) Info(msg string, vars map[string]interface{}) {
	l.Emit(LogEntry{Level: LevelInfo, Msg: msg, Vars: vars})
}

func (l *Logger) Warn(msg string, vars map[string]interface{}) {
	l.Emit(LogEntry{Level: LevelWarn, Msg: msg, Vars: vars})
}

func (l *Logger) Error(msg string, vars map[string]interface{}) {
	l.Emit(LogEntry{Level: LevelError, Msg: msg, Vars: vars})
}

func (l *Logger) Close() {
	if l != nil && l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) SetDefaultLogType(t string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.DefaultLogType = t
	l.mu.Unlock()
}

// SetMinLevel sets the level filter; unknown names mean INFO.
func (l *Logger) SetMinLevel(level string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.MinLevel = ParseLevel(level)
	l.mu.Unlock()
}

func (l *Logger) SetRunID(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.RunID = id
	l.mu.Unlock()
}

// ParseLevel normalizes a level name; unknown names fall back to INFO.
func ParseLevel(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "WARNING" {
		return LevelWarn
	}
	if _, ok := levelRank[up]; ok {
		return up
	}
	return LevelInfo
}
