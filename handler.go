package wificfg

import (
	"log/slog"
	"net"
)

// handleDriverEvent runs on the driver's goroutine. It mirrors connectivity
// state into the flag and event bits that IsStationConnected and WaitEvent
// observe.
func (m *Manager) handleDriverEvent(ev DriverEvent) {
	m.logattrs(levelTrace, "wifi event", slog.String("kind", ev.Kind.String()))
	switch ev.Kind {
	case EvStationStart:
		m.info("station started")

	case EvStationConnected:
		m.info("station connected",
			slog.String("ssid", ev.SSID),
			slog.Uint64("channel", uint64(ev.Channel)),
		)

	case EvStationDisconnected:
		m.logerr("station disconnected",
			slog.String("ssid", ev.SSID),
			slog.Uint64("reason", uint64(ev.Reason)),
		)
		m.events.Clear(connectedBit)
		m.events.Set(disconnectedBit)
		m.setStationConnected(false)

	case EvGotIP:
		m.info("got IPv4", slog.String("addr", ev.Addr.String()))
		m.setStationConnected(true)
		m.events.Set(connectedBit)

	case EvAPStart:
		m.info("AP started", slog.Uint64("channel", uint64(ev.Channel)))

	case EvAPStop:
		m.info("AP stopped")

	case EvAPPeerJoined:
		m.info("AP peer joined", slog.String("mac", net.HardwareAddr(ev.Peer[:]).String()))

	case EvAPPeerLeft:
		m.info("AP peer left", slog.String("mac", net.HardwareAddr(ev.Peer[:]).String()))

	case EvSmartConfigCreds:
		m.info("smartconfig credentials",
			slog.String("ssid", ev.SSID),
			slog.Int("passlen", len(ev.Passphrase)),
		)
		m.smartConfigReconnect(ev)

	case EvSmartConfigDone:
		m.info("smartconfig done")
		m.events.Set(smartConfigDoneBit)

	default:
		m.debug("unknown wifi event", slog.Uint64("kind", uint64(ev.Kind)))
	}
}

// smartConfigReconnect applies provisioned credentials: drop the current
// association, submit the new station config and reconnect. Failures are
// logged only; the provisioning flow learns the outcome via WaitEvent.
func (m *Manager) smartConfigReconnect(ev DriverEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.drv.Disconnect(); err != nil {
		m.logerr("smartconfig disconnect failed", slog.String("err", err.Error()))
	}
	if err := m.drv.ConfigureStation(StationConfig{SSID: ev.SSID, Passphrase: ev.Passphrase}); err != nil {
		m.logerr("smartconfig sta config failed", slog.String("err", err.Error()))
	}
	if err := m.drv.Connect(); err != nil {
		m.logerr("smartconfig connect failed", slog.String("err", err.Error()))
	}
}
