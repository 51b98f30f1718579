package wificfg

import "log/slog"

// apMaxConnections limits peers associated with the soft AP.
const apMaxConnections = 3

// InitAccessPoint resets the driver and configures it to serve a network on
// the given channel. An empty password serves an open network; otherwise
// WPA/WPA2-PSK. The first call also performs one-time driver setup; repeat
// calls reuse it.
//
// The interfaces are not brought up until StartRunning.
func (m *Manager) InitAccessPoint(ssid, password string, channel uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setup(); err != nil {
		return err
	}

	m.setStationConnected(false)
	m.events.Clear(allEventBits)

	// Reset any prior association/run state. Both calls may legitimately
	// fail when there is nothing to tear down.
	if err := m.drv.Disconnect(); err != nil {
		m.warn("reset disconnect failed", slog.String("err", err.Error()))
	}
	if err := m.drv.Stop(); err != nil {
		m.warn("reset stop failed", slog.String("err", err.Error()))
	}

	if err := m.drv.SetStorage(StorageRAM); err != nil {
		m.logerr("set storage failed", slog.String("err", err.Error()))
		return err
	}

	cfg := AccessPointConfig{
		SSID:           ssid,
		Auth:           AuthOpen,
		Channel:        channel,
		MaxConnections: apMaxConnections,
	}
	if password != "" {
		cfg.Passphrase = password
		cfg.Auth = AuthWPA2PSK
	}

	if err := m.drv.SetMode(ModeAccessPoint); err != nil {
		m.logerr("set mode failed", slog.String("err", err.Error()))
		return err
	}
	if err := m.drv.ConfigureAccessPoint(cfg); err != nil {
		m.logerr("ap config failed", slog.String("err", err.Error()))
		return err
	}
	m.info("soft AP configured",
		slog.String("ssid", ssid),
		slog.Uint64("channel", uint64(channel)),
		slog.Bool("open", cfg.Auth == AuthOpen),
	)
	return nil
}

// StopSoftAP switches the driver back to pure station mode. A mode-switch
// failure is logged but not reported, matching the reset-tolerant calls.
func (m *Manager) StopSoftAP() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info("switching to STA mode")
	if err := m.drv.SetMode(ModeStation); err != nil {
		m.logerr("set mode STA failed", slog.String("err", err.Error()))
	}
	return nil
}
