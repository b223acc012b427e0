package logging

import (
	"context"
	"log/slog"
	"time"

	"archivist/internal/services"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Strings(key string, values []string) Attr { return slog.Any(key, values) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey returns true if any attribute in attrs has the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// WarnWithContext logs a warning tagged with event_type, error_kind and
// error_hint. Kind and hint come from an explicit attr when present,
// otherwise from the "error" attr's taxonomy marker.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, Args(failureAttrs(eventType, attrs)...)...)
}

// ErrorWithContext is WarnWithContext at error level.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(failureAttrs(eventType, attrs)...)...)
}

func failureAttrs(eventType string, attrs []Attr) []Attr {
	out := make([]Attr, 0, len(attrs)+3)
	out = append(out, attrs...)
	if !HasAttrKey(out, FieldEventType) {
		out = append(out, String(FieldEventType, eventType))
	}
	kind := kindOf(out)
	if kind != services.KindNone && kind != services.KindUnknown && !HasAttrKey(out, FieldErrorKind) {
		out = append(out, String(FieldErrorKind, string(kind)))
	}
	if !HasAttrKey(out, FieldErrorHint) {
		out = append(out, String(FieldErrorHint, services.Hint(kind)))
	}
	return out
}

func kindOf(attrs []Attr) services.Kind {
	for _, a := range attrs {
		if a.Key == FieldErrorKind {
			return services.Kind(a.Value.String())
		}
	}
	for _, a := range attrs {
		if a.Key != "error" || a.Value.Kind() != slog.KindAny {
			continue
		}
		if err, ok := a.Value.Any().(error); ok {
			return services.KindOf(err)
		}
	}
	return services.KindNone
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
