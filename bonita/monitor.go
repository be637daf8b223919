package bonita

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
)

// Checker probes the availability of a Bonita server. It is implemented by [Client].
type Checker interface {
	CheckAvailability(context.Context) bool
}

func NewMonitor(checker Checker, customizers ...func(*MonitorOptions)) (*Monitor, error) {
	if checker == nil {
		return nil, errors.New("checker is nil")
	}

	options := NewMonitorOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Monitor{
		checker: checker,
		options: options,
		logger:  logger,
	}, nil
}

func NewMonitorOptions() MonitorOptions {
	return MonitorOptions{
		Cron:    "* * * * *",
		Timeout: 10 * time.Second,
	}
}

type MonitorOptions struct {
	Cron    string        // CRON expression, defining when the availability is probed.
	Timeout time.Duration // Time limit for a single probe.

	Gauge  prometheus.Gauge // Optional gauge, set to 1 when available and 0 otherwise.
	Logger hclog.Logger
}

func (o MonitorOptions) Validate() error {
	if !gronx.IsValid(o.Cron) {
		return fmt.Errorf("CRON expression %q is invalid", o.Cron)
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than zero")
	}
	return nil
}

// Monitor probes the availability of a Bonita server on a CRON schedule and caches the last result.
type Monitor struct {
	checker Checker
	options MonitorOptions
	logger  hclog.Logger

	available atomic.Bool
	checkedAt atomic.Pointer[time.Time]

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Available returns the result of the last probe. Before the first probe, false is returned.
func (m *Monitor) Available() bool {
	return m.available.Load()
}

// CheckedAt returns the time of the last probe or the zero time, if no probe has been performed yet.
func (m *Monitor) CheckedAt() time.Time {
	if t := m.checkedAt.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Check probes the availability immediately and updates the cached result.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.options.Timeout)
	defer cancel()

	available := m.checker.CheckAvailability(ctx)
	now := time.Now()

	previous := m.available.Swap(available)
	m.checkedAt.Store(&now)

	if m.options.Gauge != nil {
		if available {
			m.options.Gauge.Set(1)
		} else {
			m.options.Gauge.Set(0)
		}
	}

	if previous != available {
		m.logger.Info("availability changed", "available", available)
	}
	return available
}

// Start performs an initial probe and schedules the subsequent probes. Calling Start on a started monitor has no
// effect.
func (m *Monitor) Start() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(ctx, m.done)
}

// Stop cancels the schedule and waits for a running probe to finish.
func (m *Monitor) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cancel == nil {
		return
	}

	m.cancel()
	<-m.done

	m.cancel = nil
	m.done = nil
}

func (m *Monitor) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	m.Check(ctx)

	for {
		next, err := gronx.NextTickAfter(m.options.Cron, time.Now(), false)
		if err != nil {
			m.logger.Error("failed to compute next probe", "cron", m.options.Cron, "err", err)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.Check(ctx)
		}
	}
}
