package service

import (
	"database/sql"
	"log/slog"
	"time"
)

// PoolStatser is implemented by the sqlite and postgres stores.
type PoolStatser interface {
	Stats() sql.DBStats
}

// PoolObserver receives every snapshot. *metricsx.Metrics implements it.
type PoolObserver interface {
	ObservePool(sql.DBStats)
}

// PoolMonitor periodically reports connection pool usage so leaked
// checkouts show up in logs and metrics.
type PoolMonitor struct {
	Pool     PoolStatser
	Observer PoolObserver
	Logger   *slog.Logger
	Interval time.Duration

	lastWait int64

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPoolMonitor creates a monitor. If interval is 0 or negative, defaults
// to 30 seconds.
func NewPoolMonitor(pool PoolStatser, observer PoolObserver, logger *slog.Logger, interval time.Duration) *PoolMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PoolMonitor{
		Pool:     pool,
		Observer: observer,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (m *PoolMonitor) Start() {
	go m.run()
	m.Logger.Info("pool monitor started", "interval", m.Interval)
}

// Stop blocks until the worker has exited.
func (m *PoolMonitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
	m.Logger.Info("pool monitor stopped")
}

func (m *PoolMonitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	m.Sample()

	for {
		select {
		case <-ticker.C:
			m.Sample()
		case <-m.stopCh:
			return
		}
	}
}

// Sample takes one snapshot, publishes it and returns it.
func (m *PoolMonitor) Sample() sql.DBStats {
	s := m.Pool.Stats()
	if m.Observer != nil {
		m.Observer.ObservePool(s)
	}

	attrs := []any{
		"open", s.OpenConnections,
		"in_use", s.InUse,
		"idle", s.Idle,
		"wait_count", s.WaitCount,
		"wait_duration", s.WaitDuration,
	}

	saturated := s.MaxOpenConnections > 0 && s.InUse >= s.MaxOpenConnections
	waited := s.WaitCount > m.lastWait
	m.lastWait = s.WaitCount

	if saturated || waited {
		m.Logger.Warn("db pool under pressure", append(attrs, "max_open", s.MaxOpenConnections)...)
	} else {
		m.Logger.Debug("db pool stats", attrs...)
	}
	return s
}
