package logger

import (
	"context"
	"log/slog"
	"strings"
)

const maskedValue = "[redacted]"

// secretFragments marks attribute keys that must never reach log sinks.
// Matching is case-insensitive on substrings, so "bot_token" and
// "redis_password" are caught too.
var secretFragments = []string{
	"token",
	"password",
	"secret",
	"api_key",
	"authorization",
	"dsn",
}

// redactingHandler masks secret-bearing attributes, including ones nested in
// groups, before delegating to the wrapped handler.
type redactingHandler struct {
	next slog.Handler
}

// NewMaskingHandler wraps next with secret redaction.
func NewMaskingHandler(next slog.Handler) slog.Handler {
	return redactingHandler{next: next}
}

func (h redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = redactAttr(attr)
	}
	return redactingHandler{next: h.next.WithAttrs(redacted)}
}

func (h redactingHandler) WithGroup(name string) slog.Handler {
	return redactingHandler{next: h.next.WithGroup(name)}
}

func (h redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(redactAttr(attr))
		return true
	})

	return h.next.Handle(ctx, clean)
}

func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, member := range members {
			redacted[i] = redactAttr(member)
		}
		attr.Value = slog.GroupValue(redacted...)
		return attr
	}

	if isSecretKey(attr.Key) {
		attr.Value = slog.StringValue(maskedValue)
	}
	return attr
}

func isSecretKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, fragment := range secretFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}
