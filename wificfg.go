// Package wificfg drives Wi-Fi connectivity on microcontrollers: bringing up
// station and access-point modes, starting connections and waiting on
// connectivity events. The radio itself lives behind the Driver interface;
// adapters for real hardware are provided in the cyw and nldrv packages.
package wificfg

import (
	"errors"
	"log/slog"
	"sync"
)

// Config configures a Manager.
type Config struct {
	// Driver is the vendor Wi-Fi driver to forward to. Required.
	Driver Driver
	// Logger receives structured logs. Nil disables logging.
	Logger *slog.Logger
}

// Manager owns the connectivity state a provisioning flow interacts with:
// the driver handle, the waitable event bits and the connected flag. It
// replaces what firmware would usually keep in process-wide globals; create
// one per radio and share it between the provisioning and event-wait sides.
type Manager struct {
	mu     sync.Mutex
	drv    Driver
	logger *slog.Logger
	events *eventBits

	// flagmu guards staConnected, written by the driver event callback and
	// read by callers.
	flagmu       sync.Mutex
	staConnected bool
	// initDone guards one-time driver setup.
	initDone bool
}

// New returns a Manager forwarding to cfg.Driver. Driver setup is deferred
// to the first Init* call.
func New(cfg Config) (*Manager, error) {
	if cfg.Driver == nil {
		return nil, errNoDriver
	}
	return &Manager{
		drv:    cfg.Driver,
		logger: cfg.Logger,
		events: newEventBits(),
	}, nil
}

// setup runs the one-time driver initialization and registers the event
// callback. Idempotent. Callers hold m.mu.
func (m *Manager) setup() error {
	if m.initDone {
		return nil
	}
	if err := m.drv.Setup(); err != nil {
		m.logerr("driver setup failed", slog.String("err", err.Error()))
		return err
	}
	m.drv.Notify(m.handleDriverEvent)
	m.initDone = true
	return nil
}

// IsStationConnected reports whether the most recent driver event left the
// station connected.
func (m *Manager) IsStationConnected() bool {
	m.flagmu.Lock()
	defer m.flagmu.Unlock()
	return m.staConnected
}

func (m *Manager) setStationConnected(v bool) {
	m.flagmu.Lock()
	m.staConnected = v
	m.flagmu.Unlock()
}

// StartRunning brings the configured interfaces up.
func (m *Manager) StartRunning() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.drv.Start(); err != nil {
		m.logerr("start failed", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// Close tears the radio down: drops any association and stops the interfaces.
// Not-connected results from either step are not failures; anything else from
// both steps is reported together.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initDone {
		return nil
	}
	derr := m.drv.Disconnect()
	if errors.Is(derr, ErrNotConnected) {
		derr = nil
	}
	serr := m.drv.Stop()
	if errors.Is(serr, ErrNotConnected) {
		serr = nil
	}
	m.setStationConnected(false)
	m.events.Clear(allEventBits)
	return errjoin(derr, serr)
}
