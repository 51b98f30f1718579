package wificfg

import "log/slog"

// Limits inherited from the vendor configuration structures.
const (
	maxSSIDLen       = 32
	maxPassphraseLen = 64
)

// InitStation resets the driver into station mode without connecting. The
// first call also performs one-time driver setup; repeat calls reuse it.
func (m *Manager) InitStation() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setup(); err != nil {
		return err
	}

	m.setStationConnected(false)
	m.events.Clear(allEventBits)

	// May fail when the driver was never started; tolerated.
	if err := m.drv.Stop(); err != nil {
		m.warn("reset stop failed", slog.String("err", err.Error()))
	}

	if err := m.drv.SetStorage(StorageFlash); err != nil {
		m.logerr("set storage failed", slog.String("err", err.Error()))
		return err
	}
	if err := m.drv.SetMode(ModeStation); err != nil {
		m.logerr("set mode failed", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// ConnectStation joins the given network in pure station mode. Completion is
// observed via WaitEvent.
func (m *Manager) ConnectStation(ssid, password string) error {
	return m.connectStation(ModeStation, ssid, password)
}

// ConnectAPSTA joins the given network while keeping the soft AP up.
func (m *Manager) ConnectAPSTA(ssid, password string) error {
	return m.connectStation(ModeAPSTA, ssid, password)
}

func (m *Manager) connectStation(mode Mode, ssid, password string) error {
	if len(ssid) == 0 || len(ssid) > maxSSIDLen || len(password) > maxPassphraseLen {
		return ErrInvalidConfig
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info("connecting station",
		slog.String("ssid", ssid),
		slog.Int("passlen", len(password)),
		slog.String("mode", mode.String()),
	)

	if err := m.drv.SetStorage(StorageFlash); err != nil {
		m.logerr("set storage failed", slog.String("err", err.Error()))
		return err
	}
	if err := m.drv.SetMode(mode); err != nil {
		m.logerr("set mode failed", slog.String("err", err.Error()))
		return err
	}
	if err := m.drv.ConfigureStation(StationConfig{SSID: ssid, Passphrase: password}); err != nil {
		m.logerr("sta config failed", slog.String("err", err.Error()))
		return err
	}
	if err := m.drv.Connect(); err != nil {
		m.logerr("connect failed", slog.String("err", err.Error()))
		return err
	}
	return nil
}
