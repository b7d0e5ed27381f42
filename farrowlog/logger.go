// Package farrowlog is FrozenArrow's structured logger: leveled,
// component-tagged, JSON-line output, scoped to what a query engine core
// needs (component tags, query/strategy/duration fields). It has no file
// rotation or retention policy — those belong to an on-disk log sink,
// which this in-process library does not own.
package farrowlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry is one structured log line.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Strategy  string                 `json:"strategy,omitempty"`
	QueryHash string                 `json:"query_hash,omitempty"`
	DurationNs int64                 `json:"duration_ns,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger is a leveled, component-scoped structured logger. Safe for
// concurrent use; the engine shares one Logger across threads, only
// tagging a per-call Component via With.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	component string
}

// New creates a Logger writing JSON lines to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w, level: level}
}

// Default returns a Logger writing to stderr at Info level — a
// query-engine library should not write to a caller's stdout.
func Default() *Logger {
	return New(os.Stderr, Info)
}

// With returns a copy of the logger tagged with component.
func (l *Logger) With(component string) *Logger {
	return &Logger{out: l.out, level: l.level, component: component}
}

func (l *Logger) log(level Level, strategy, queryHash string, dur time.Duration, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}
	entry := Entry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Component: l.component,
		Message:   msg,
		Strategy:  strategy,
		QueryHash: queryHash,
		Fields:    fields,
	}
	if dur > 0 {
		entry.DurationNs = dur.Nanoseconds()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(data)
}

// Debugf logs at Debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(Debug, "", "", 0, fmt.Sprintf(format, args...), nil)
}

// Infof logs at Info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(Info, "", "", 0, fmt.Sprintf(format, args...), nil)
}

// Warnf logs at Warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(Warn, "", "", 0, fmt.Sprintf(format, args...), nil)
}

// Errorf logs at Error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(Error, "", "", 0, fmt.Sprintf(format, args...), nil)
}

// QueryExecuted logs one adaptive-execution observation: the strategy used,
// the query's canonical hash, and how long it took. This is the one
// domain-specific log call the adaptive package (C16) emits per execution.
func (l *Logger) QueryExecuted(queryHash, strategy string, dur time.Duration, rows int64) {
	l.log(Info, strategy, queryHash, dur, "query executed", map[string]interface{}{
		"rows_processed": rows,
	})
}

// Recommendation logs a Slow/Opportunity recommendation from adaptive execution.
func (l *Logger) Recommendation(queryHash, kind, detail string) {
	l.log(Warn, "", queryHash, 0, detail, map[string]interface{}{"recommendation": kind})
}
