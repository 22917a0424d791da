package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// SlogLogger implements Logger using slog. It is the operational sink; the
// durable trail lives in the Recorder.
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, entry Entry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	attrs := []any{
		slog.String("action", entry.Action),
		slog.String("actor_id", entry.ActorUserID),
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
		slog.String("decision", string(entry.Decision)),
		slog.Time("occurred_at", entry.OccurredAt),
	}
	if entry.TenantID != nil {
		attrs = append(attrs, slog.String("tenant_id", *entry.TenantID))
	}
	if entry.ProjectID != nil {
		attrs = append(attrs, slog.String("project_id", *entry.ProjectID))
	}
	if entry.Reason != "" {
		attrs = append(attrs, slog.String("reason", entry.Reason))
	}
	if len(entry.Before) > 0 {
		attrs = append(attrs, slog.Any("before", redact(entry.Before)))
	}
	if len(entry.After) > 0 {
		attrs = append(attrs, slog.Any("after", redact(entry.After)))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

func redact(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSecret(k) {
			v = "[REDACTED]"
		}
		out[k] = v
	}
	return out
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "key", "hash", "credential", "authorization"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Fanout sends every entry to multiple loggers, best effort.
type Fanout []Logger

func (f Fanout) Log(ctx context.Context, entry Entry) {
	for _, l := range f {
		l.Log(ctx, entry)
	}
}

// RecorderLogger adapts a Recorder to the Logger interface for call sites
// that only need fire-and-forget semantics. Append failures are logged but
// not surfaced. Entries already sealed by a recorder (hash set inside a
// store transaction) are skipped, so mutation paths can fan out to the
// operational sinks without appending the same row twice.
type RecorderLogger struct {
	Recorder Recorder
}

func (r *RecorderLogger) Log(ctx context.Context, entry Entry) {
	if entry.Hash != "" {
		return
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	if err := r.Recorder.Append(ctx, &entry); err != nil {
		slog.ErrorContext(ctx, "failed to append audit entry",
			slog.String("action", entry.Action),
			slog.String("error", err.Error()),
		)
	}
}
