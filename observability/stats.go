// Package observability aggregates operator-facing counters for the relay.
// Everything here is advisory; losing a sample never affects delivery.
package observability

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats counts relay activity with atomics so the hot path never locks.
// All methods are safe on a nil receiver, which lets callers treat stats
// as optional.
type Stats struct {
	started time.Time

	messagesPersisted uint64
	persistFailures   uint64
	eventsBroadcast   uint64
	eventsDropped     uint64
	fanoutFailures    uint64
}

func NewStats() *Stats {
	return &Stats{started: time.Now().UTC()}
}

func (s *Stats) IncrPersisted() {
	if s != nil {
		atomic.AddUint64(&s.messagesPersisted, 1)
	}
}

func (s *Stats) IncrPersistFailures() {
	if s != nil {
		atomic.AddUint64(&s.persistFailures, 1)
	}
}

func (s *Stats) IncrBroadcast() {
	if s != nil {
		atomic.AddUint64(&s.eventsBroadcast, 1)
	}
}

func (s *Stats) IncrDropped() {
	if s != nil {
		atomic.AddUint64(&s.eventsDropped, 1)
	}
}

func (s *Stats) IncrFanoutFailures() {
	if s != nil {
		atomic.AddUint64(&s.fanoutFailures, 1)
	}
}

// Report is the JSON shape served by the stats endpoint.
type Report struct {
	UptimeSeconds     int64   `json:"uptime_seconds"`
	Rooms             int     `json:"rooms"`
	Sessions          int     `json:"sessions"`
	MessagesPersisted uint64  `json:"messages_persisted"`
	PersistFailures   uint64  `json:"persist_failures"`
	EventsBroadcast   uint64  `json:"events_broadcast"`
	EventsDropped     uint64  `json:"events_dropped"`
	FanoutFailures    uint64  `json:"fanout_failures"`
	RSSMegabytes      uint64  `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
}

// Snapshot merges the counters with live registry counts and process-level
// metrics. Process metrics are best-effort and left zero on error.
func (s *Stats) Snapshot(rooms, sessions int) Report {
	report := Report{Rooms: rooms, Sessions: sessions}
	if s == nil {
		return report
	}

	report.UptimeSeconds = int64(time.Since(s.started).Seconds())
	report.MessagesPersisted = atomic.LoadUint64(&s.messagesPersisted)
	report.PersistFailures = atomic.LoadUint64(&s.persistFailures)
	report.EventsBroadcast = atomic.LoadUint64(&s.eventsBroadcast)
	report.EventsDropped = atomic.LoadUint64(&s.eventsDropped)
	report.FanoutFailures = atomic.LoadUint64(&s.fanoutFailures)

	if rss, cpu, err := selfStats(); err == nil {
		report.RSSMegabytes = rss / (1024 * 1024)
		report.CPUPercent = cpu
	}
	return report
}

// selfStats retrieves memory and CPU usage of the current process.
func selfStats() (uint64, float64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
