package sink

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
)

var _ contract.AuditSink = LogSink{}

// LogSink writes the audit trail to the structured log.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) Name() string { return "log" }

func (l LogSink) Consume(ctx context.Context, evt domain.AuditEvent) error {
	l.log.InfoContext(ctx, "Audit",
		"kind", evt.Kind,
		"identity", evt.Identity,
		"reason", evt.Reason,
		"remote_addr", evt.RemoteAddr,
		"at", evt.At)
	return nil
}
