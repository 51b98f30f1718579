package wificfg

import "log/slog"

// StartSmartConfig configures the driver's over-the-air provisioning kind.
// The provisioning session itself is driven by the driver; managers only
// observe its progress through EvSmartConfigCreds/EvSmartConfigDone events.
func (m *Manager) StartSmartConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.drv.SetSmartConfigKind(SmartConfigTouchAirKiss); err != nil {
		m.logerr("smartconfig kind failed", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// StopSmartConfig stops the provisioning session and clears any pending
// connectivity bits. The driver's status is returned verbatim.
func (m *Manager) StopSmartConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.drv.StopSmartConfig()
	if err != nil {
		m.logerr("smartconfig stop failed", slog.String("err", err.Error()))
	}
	m.events.Clear(allEventBits)
	return err
}
