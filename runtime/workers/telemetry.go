package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// Counter reports live registry sizes; the coordinator satisfies it.
type Counter interface {
	Counts() (rooms, sessions int)
}

// TelemetryWorker periodically logs a snapshot of relay activity and
// process health. Purely observational.
type TelemetryWorker struct {
	log      *slog.Logger
	stats    *observability.Stats
	counter  Counter
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, stats *observability.Stats, counter Counter, interval time.Duration) *TelemetryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TelemetryWorker{log: log, stats: stats, counter: counter, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("stopping telemetry worker")
			return ctx.Err()
		case <-ticker.C:
			rooms, sessions := w.counter.Counts()
			report := w.stats.Snapshot(rooms, sessions)
			w.log.Info("relay telemetry",
				"rooms", report.Rooms,
				"sessions", report.Sessions,
				"messages_persisted", report.MessagesPersisted,
				"events_broadcast", report.EventsBroadcast,
				"events_dropped", report.EventsDropped,
				"fanout_failures", report.FanoutFailures,
				"rss_mb", report.RSSMegabytes,
				"cpu_percent", report.CPUPercent,
			)
		}
	}
}
