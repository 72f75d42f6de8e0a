// Package timeoutmonitor implements a background scan loop: periodically
// walk pause records, warn once as the deadline approaches, and apply the
// record's timeout_action once the deadline has passed.
//
// Grounded on a ticking/backoff middleware style and itsneelabh-gomind's
// ExpiryProcessorConfig (ScanInterval, BatchSize).
package timeoutmonitor

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/pause"
	"github.com/flowcore/engine/pkg/types"
)

// ResumeHandler is called once the monitor resolves a timed-out or
// warned pause record; the engine supplies this to re-enter its dispatch
// loop.
type ResumeHandler func(ctx context.Context, resolved *pause.Resolved, rec *types.PauseRecord)

// Monitor is the background scan loop.
type Monitor struct {
	store       pause.Store
	controller  *pause.Controller
	interval    time.Duration
	warnWindow  time.Duration
	onResolved  ResumeHandler
	onWarning   func(rec *types.PauseRecord)
}

// Config tunes the monitor.
type Config struct {
	ScanInterval time.Duration // default 30s
	WarnWindow   time.Duration // default 15m
}

// DefaultConfig returns spec.md's defaults.
func DefaultConfig() Config {
	return Config{ScanInterval: 30 * time.Second, WarnWindow: 15 * time.Minute}
}

// New creates a Monitor. onResolved is invoked for every record the monitor
// times out; onWarning (optional) is invoked once per record as it enters
// the warn window.
func New(store pause.Store, controller *pause.Controller, cfg Config, onResolved ResumeHandler, onWarning func(rec *types.PauseRecord)) *Monitor {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 30 * time.Second
	}
	if cfg.WarnWindow <= 0 {
		cfg.WarnWindow = 15 * time.Minute
	}
	return &Monitor{store: store, controller: controller, interval: cfg.ScanInterval, warnWindow: cfg.WarnWindow, onResolved: onResolved, onWarning: onWarning}
}

// Run blocks, scanning on Config.ScanInterval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ScanOnce(ctx)
		}
	}
}

// ScanOnce performs one scan pass: every due record gets its timeout_action
// applied; every record newly inside the warn window gets a single warning.
// Exported so tests and an engine-triggered scan can both drive it without
// waiting on the ticker.
func (m *Monitor) ScanOnce(ctx context.Context) {
	now := time.Now()

	overdue, err := m.store.ListDue(ctx, func(rec types.PauseRecord) bool {
		return !rec.Deadline.After(now)
	})
	if err == nil {
		for _, rec := range overdue {
			resolved, err := m.controller.ApplyTimeout(ctx, rec)
			if err != nil {
				// Lost the CAS race to a concurrent external resume — the
				// record is already gone; nothing left to do.
				continue
			}
			if m.onResolved != nil {
				m.onResolved(ctx, resolved, rec)
			}
		}
	}

	nearing, err := m.store.ListDue(ctx, func(rec types.PauseRecord) bool {
		return rec.WarnedAt == nil && rec.Deadline.After(now) && rec.Deadline.Sub(now) <= m.warnWindow
	})
	if err == nil {
		for _, rec := range nearing {
			if err := m.store.BumpWarned(ctx, rec.ExecutionID, rec.NodeID); err != nil {
				continue
			}
			if m.onWarning != nil {
				m.onWarning(rec)
			}
		}
	}
}
