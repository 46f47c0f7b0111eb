// Package observability tracks relay throughput with cheap atomic counters
// and reports a snapshot on a fixed cadence. Counters are incremented on the
// hot path, so nothing here takes a lock.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Snapshot is one observation of the relay's counters and process footprint.
type Snapshot struct {
	SessionsOpen    int64   `json:"sessions_open"`
	SessionsOpened  uint64  `json:"sessions_opened"`
	MessagesRouted  uint64  `json:"messages_routed"`
	EventsDelivered uint64  `json:"events_delivered"`
	EventsDropped   uint64  `json:"events_dropped"`
	MessagesPerSec  float64 `json:"messages_per_sec"`
	AllocMemMb      uint64  `json:"alloc_mem_mb"`
	ResidentMemMb   uint64  `json:"resident_mem_mb"`
	NumGC           uint32  `json:"num_gc"`
	NumGoroutine    int     `json:"num_goroutine"`
}

// Stats aggregates the relay's telemetry.
type Stats struct {
	log *slog.Logger

	sessionsOpen    atomic.Int64
	sessionsOpened  atomic.Uint64
	messagesRouted  atomic.Uint64
	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64

	// window state for the per-second rate, touched only by Listen
	lastRouted uint64
	lastCheck  time.Time

	proc *process.Process
}

func NewStats(log *slog.Logger) *Stats {
	// Process handle failure only disables the RSS column
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Stats{
		log:       log,
		lastCheck: time.Now(),
		proc:      proc,
	}
}

func (s *Stats) SessionOpened() {
	s.sessionsOpen.Add(1)
	s.sessionsOpened.Add(1)
}

func (s *Stats) SessionClosed() {
	s.sessionsOpen.Add(-1)
}

func (s *Stats) MessageRouted() {
	s.messagesRouted.Add(1)
}

func (s *Stats) EventDelivered() {
	s.eventsDelivered.Add(1)
}

func (s *Stats) EventDropped() {
	s.eventsDropped.Add(1)
}

// Listen logs a snapshot every interval until the context is cancelled.
func (s *Stats) Listen(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stats reporter stopped")
			return
		case <-ticker.C:
			snapshot := s.snapshot()
			s.log.Info("relay stats",
				"sessions_open", snapshot.SessionsOpen,
				"messages_routed", snapshot.MessagesRouted,
				"messages_per_sec", snapshot.MessagesPerSec,
				"events_delivered", snapshot.EventsDelivered,
				"events_dropped", snapshot.EventsDropped,
				"alloc_mem_mb", snapshot.AllocMemMb,
				"resident_mem_mb", snapshot.ResidentMemMb,
				"goroutines", snapshot.NumGoroutine,
			)
		}
	}
}

func (s *Stats) snapshot() Snapshot {
	now := time.Now()
	routed := s.messagesRouted.Load()

	var rate float64
	if window := now.Sub(s.lastCheck).Seconds(); window > 0 {
		rate = float64(routed-s.lastRouted) / window
	}
	s.lastRouted = routed
	s.lastCheck = now

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var residentMb uint64
	if s.proc != nil {
		if info, err := s.proc.MemoryInfo(); err == nil {
			residentMb = info.RSS / 1024 / 1024
		}
	}

	return Snapshot{
		SessionsOpen:    s.sessionsOpen.Load(),
		SessionsOpened:  s.sessionsOpened.Load(),
		MessagesRouted:  routed,
		EventsDelivered: s.eventsDelivered.Load(),
		EventsDropped:   s.eventsDropped.Load(),
		MessagesPerSec:  rate,
		AllocMemMb:      memStats.Alloc / 1024 / 1024,
		ResidentMemMb:   residentMb,
		NumGC:           memStats.NumGC,
		NumGoroutine:    runtime.NumGoroutine(),
	}
}
