package wificfg

import "net/netip"

// Mode selects which interfaces of the radio are active.
type Mode uint8

const (
	// ModeOff disables both interfaces.
	ModeOff Mode = iota
	// ModeStation joins an existing network as a client.
	ModeStation
	// ModeAccessPoint serves a network of its own.
	ModeAccessPoint
	// ModeAPSTA runs both interfaces at once.
	ModeAPSTA
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeStation:
		return "sta"
	case ModeAccessPoint:
		return "ap"
	case ModeAPSTA:
		return "apsta"
	}
	return "unknown"
}

// Storage selects where the driver persists its current configuration.
type Storage uint8

const (
	// StorageRAM keeps configuration in memory only.
	StorageRAM Storage = iota
	// StorageFlash persists configuration across resets.
	StorageFlash
)

// AuthMode is the access-point authentication method.
type AuthMode uint8

const (
	AuthOpen AuthMode = iota
	AuthWPA2PSK
)

// SmartConfigKind selects the over-the-air provisioning protocol variant.
type SmartConfigKind uint8

const (
	SmartConfigTouch SmartConfigKind = iota
	SmartConfigAirKiss
	SmartConfigTouchAirKiss
)

// StationConfig is the client-side join configuration handed to the driver.
type StationConfig struct {
	SSID string
	// Passphrase is the WPA/WPA2 password. Empty joins an open network.
	Passphrase string
}

// AccessPointConfig configures the served network.
type AccessPointConfig struct {
	SSID       string
	Passphrase string
	Auth       AuthMode
	Channel    uint8
	// MaxConnections limits concurrently associated peers.
	MaxConnections uint8
}

// EventKind discriminates driver events delivered to the Notify callback.
type EventKind uint8

const (
	evUnknown EventKind = iota
	// EvStationStart: station interface came up.
	EvStationStart
	// EvStationConnected: association with the AP completed.
	EvStationConnected
	// EvStationDisconnected: association lost or join failed.
	EvStationDisconnected
	// EvGotIP: an IPv4 address was acquired on the station interface.
	EvGotIP
	// EvAPStart, EvAPStop: the served network went up/down.
	EvAPStart
	EvAPStop
	// EvAPPeerJoined, EvAPPeerLeft: a peer associated with/left our AP.
	EvAPPeerJoined
	EvAPPeerLeft
	// EvSmartConfigCreds: provisioning delivered network credentials.
	EvSmartConfigCreds
	// EvSmartConfigDone: provisioning session finished.
	EvSmartConfigDone
)

func (k EventKind) String() string {
	switch k {
	case EvStationStart:
		return "sta_start"
	case EvStationConnected:
		return "sta_connected"
	case EvStationDisconnected:
		return "sta_disconnected"
	case EvGotIP:
		return "got_ip"
	case EvAPStart:
		return "ap_start"
	case EvAPStop:
		return "ap_stop"
	case EvAPPeerJoined:
		return "ap_peer_joined"
	case EvAPPeerLeft:
		return "ap_peer_left"
	case EvSmartConfigCreds:
		return "smartconfig_creds"
	case EvSmartConfigDone:
		return "smartconfig_done"
	}
	return "unknown"
}

// DriverEvent is a connectivity event posted by the driver. Only the fields
// relevant to Kind are populated.
type DriverEvent struct {
	Kind EventKind
	// SSID of the network involved (station connect/disconnect, creds).
	SSID string
	// Passphrase delivered by provisioning (EvSmartConfigCreds).
	Passphrase string
	// Reason is the driver's disconnect reason code.
	Reason uint16
	// Channel the interface is operating on.
	Channel uint8
	// Peer hardware address (EvAPPeerJoined, EvAPPeerLeft).
	Peer [6]byte
	// Addr is the acquired address (EvGotIP).
	Addr netip.Addr
}

// Driver is the vendor Wi-Fi driver surface the manager forwards to. All the
// real work (radio, association, DHCP) happens behind this interface.
//
// Implementations deliver events from their own goroutine; the Notify
// callback must never be invoked synchronously from within another Driver
// method, as the manager may be holding its own lock across driver calls.
type Driver interface {
	// Setup performs one-time initialization of the network stack and the
	// driver's event plumbing. The manager calls it at most once.
	Setup() error
	SetMode(Mode) error
	SetStorage(Storage) error
	ConfigureStation(StationConfig) error
	ConfigureAccessPoint(AccessPointConfig) error
	// Connect begins association using the last station configuration.
	// Completion is reported through events, not the return value.
	Connect() error
	Disconnect() error
	// Start brings the configured interfaces up.
	Start() error
	Stop() error
	SetSmartConfigKind(SmartConfigKind) error
	StopSmartConfig() error
	// Notify registers the event callback. Only one callback is registered
	// over the manager's lifetime.
	Notify(func(DriverEvent))
}
