package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"time"
)

var (
	_ contract.AuditLog = (*AuditFanout)(nil)
	_ contract.Worker   = (*AuditFanout)(nil)
)

// AuditFanout takes audit events off the relay's hot path and hands them
// to every sink. It is best effort: a full buffer drops the event and a
// slow sink is abandoned after sinkTimeout.
type AuditFanout struct {
	log         *slog.Logger
	events      chan domain.AuditEvent
	sinks       []contract.AuditSink
	sinkTimeout time.Duration
}

func NewAuditFanout(log *slog.Logger, bufferSize int, sinkTimeout time.Duration, sinks ...contract.AuditSink) *AuditFanout {
	return &AuditFanout{
		log:         log,
		events:      make(chan domain.AuditEvent, bufferSize),
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
	}
}

// Record never blocks.
func (w *AuditFanout) Record(evt domain.AuditEvent) {
	select {
	case w.events <- evt:
	default:
		w.log.Warn("Audit buffer full, event lost", "kind", evt.Kind, "identity", evt.Identity)
	}
}

// Len and Cap expose the buffer fill for health reporting.
func (w *AuditFanout) Len() int { return len(w.events) }
func (w *AuditFanout) Cap() int { return cap(w.events) }

func (w *AuditFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.flush()
			w.log.Debug("Context done, stopping audit fanout")
			return nil
		}
	}
}

// Fanout delivers one event to each sink in turn.
func (w *AuditFanout) Fanout(ctx context.Context, evt domain.AuditEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Audit sink failed", "sink", sinkName(sink), "kind", evt.Kind, "error", err)
		}
		cancel()
	}
}

// flush hands whatever is still buffered to the sinks on shutdown.
func (w *AuditFanout) flush() {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(context.Background(), evt)
		default:
			return
		}
	}
}

func sinkName(sink contract.AuditSink) string {
	if named, ok := sink.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unnamed"
}
