package observe

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"sync"
	"time"
)

// Logger is the structured logging surface used by the store, the engine
// and both front ends. Implementations are safe for concurrent use and
// never panic.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	WithBatch(meta BatchMeta) Logger
}

// Field is one key/value pair on a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// LogLevel orders log severities.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLogLevel maps a level name to a LogLevel. Unknown names are info.
func ParseLogLevel(s string) LogLevel {
	if i := slices.Index(levelNames[:], s); i >= 0 {
		return LogLevel(i)
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

const redactedValue = "[REDACTED]"

// jsonLogger writes one JSON object per line. Loggers derived through
// WithBatch share the parent's sink.
type jsonLogger struct {
	min  LogLevel
	sink *sink
	base []Field
}

type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) writeLine(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(append(b, '\n'))
}

// NewLoggerWithWriter returns a JSON line logger at level writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &jsonLogger{min: ParseLogLevel(level), sink: &sink{w: w}}
}

// WithBatch returns a child logger that stamps batch.id, batch.source and
// batch.items onto every line.
func (l *jsonLogger) WithBatch(meta BatchMeta) Logger {
	base := slices.Clone(l.base)
	if meta.ID != "" {
		base = append(base, F("batch.id", meta.ID))
	}
	if meta.Source != "" {
		base = append(base, F("batch.source", meta.Source))
	}
	base = append(base, F("batch.items", meta.Items))
	return &jsonLogger{min: l.min, sink: l.sink, base: base}
}

func (l *jsonLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelDebug, msg, fields)
}

func (l *jsonLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelInfo, msg, fields)
}

func (l *jsonLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelWarn, msg, fields)
}

func (l *jsonLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelError, msg, fields)
}

func (l *jsonLogger) emit(level LogLevel, msg string, fields []Field) {
	if level < l.min {
		return
	}
	line := make(map[string]any, 3+len(l.base)+len(fields))
	for _, f := range l.base {
		line[f.Key] = f.Value
	}
	for _, f := range fields {
		line[f.Key] = fieldValue(f)
	}
	line["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	line["level"] = level.String()
	line["msg"] = msg

	b, err := json.Marshal(line)
	if err != nil {
		return
	}
	l.sink.writeLine(b)
}

func fieldValue(f Field) any {
	if isRedactedField(f.Key) {
		return redactedValue
	}
	if err, ok := f.Value.(error); ok && err != nil {
		return err.Error()
	}
	return f.Value
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (l nopLogger) WithBatch(BatchMeta) Logger            { return l }
