package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Counter reports how many clients are registered.
type Counter interface {
	Len() int
}

// Queue is a buffered channel owner. Reading len and cap never blocks.
type Queue interface {
	Len() int
	Cap() int
}

type namedQueue struct {
	name  string
	queue Queue
}

// HealthReporter periodically logs the relay population, the fill of the
// watched queues and the resource usage of the relay process.
type HealthReporter struct {
	log      *slog.Logger
	counter  Counter
	queues   []namedQueue
	interval time.Duration
	proc     *process.Process
}

func NewHealthReporter(log *slog.Logger, counter Counter, interval time.Duration) *HealthReporter {
	return &HealthReporter{log: log, counter: counter, interval: interval}
}

func (w *HealthReporter) Watch(name string, queue Queue) *HealthReporter {
	w.queues = append(w.queues, namedQueue{name: name, queue: queue})
	return w
}

func (w *HealthReporter) Run(ctx context.Context) error {
	if w.proc == nil {
		proc, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return err
		}
		w.proc = proc
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health reporting")
			return nil
		case <-ticker.C:
			w.log.Info("Relay health", w.Snapshot()...)
		}
	}
}

// Snapshot returns the current figures as slog attributes.
func (w *HealthReporter) Snapshot() []any {
	attrs := []any{
		"clients", w.counter.Len(),
		"goroutines", goruntime.NumGoroutine(),
	}
	for _, q := range w.queues {
		attrs = append(attrs, q.name, fmt.Sprintf("%d/%d", q.queue.Len(), q.queue.Cap()))
	}
	if w.proc == nil {
		return attrs
	}
	if cpu, err := w.proc.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	} else {
		w.log.Debug("Error while finding process cpu usage", "err", err)
	}
	if ram, err := w.proc.MemoryPercent(); err == nil {
		attrs = append(attrs, "ram_percent", ram)
	} else {
		w.log.Debug("Error while finding process ram usage", "err", err)
	}
	return attrs
}
