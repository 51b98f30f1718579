// Package nldrv adapts boards exposing the tinygo.org/x/drivers netlink
// interface (wifinina, rtl8720dn, espat) to wificfg.Driver. These drivers
// run their own network stack, so the got-IP event follows immediately from
// the link coming up.
package nldrv

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/picoprov/wificfg"
	"tinygo.org/x/drivers/netdev"
	"tinygo.org/x/drivers/netlink"
)

// Config configures the adapter.
type Config struct {
	// Link is the board's netlink handle, typically from a probe package.
	// Required.
	Link netlink.Netlinker
	// Dev is the board's netdev handle, used to report the acquired address
	// on link-up. Optional.
	Dev    netdev.Netdever
	Logger *slog.Logger
	// ConnectTimeout bounds the driver's own join attempt. Zero uses the
	// driver default.
	ConnectTimeout time.Duration
}

// Adapter implements wificfg.Driver over netlink.Netlinker. Station mode
// only: the netlink surface this adapter binds to has no AP control.
type Adapter struct {
	mu     sync.Mutex
	link   netlink.Netlinker
	dev    netdev.Netdever
	logger *slog.Logger
	notify func(wificfg.DriverEvent)

	mode    wificfg.Mode
	sta     wificfg.StationConfig
	timeout time.Duration
	joined  bool
	running bool
}

var _ wificfg.Driver = (*Adapter)(nil)

func New(cfg Config) (*Adapter, error) {
	if cfg.Link == nil {
		return nil, errors.New("nil netlink handle")
	}
	return &Adapter{
		link:    cfg.Link,
		dev:     cfg.Dev,
		logger:  cfg.Logger,
		timeout: cfg.ConnectTimeout,
	}, nil
}

// Setup registers for the driver's link events.
func (a *Adapter) Setup() error {
	a.link.NetNotify(a.handleNetlinkEvent)
	return nil
}

func (a *Adapter) handleNetlinkEvent(ev netlink.Event) {
	switch ev {
	case netlink.EventNetUp:
		a.mu.Lock()
		sta := a.sta
		a.joined = true
		a.mu.Unlock()
		a.post(wificfg.DriverEvent{Kind: wificfg.EvStationConnected, SSID: sta.SSID})
		got := wificfg.DriverEvent{Kind: wificfg.EvGotIP, SSID: sta.SSID}
		if a.dev != nil {
			if addr, err := a.dev.Addr(); err == nil {
				got.Addr = addr
			}
		}
		a.post(got)
	case netlink.EventNetDown:
		a.mu.Lock()
		sta := a.sta
		a.joined = false
		a.mu.Unlock()
		a.post(wificfg.DriverEvent{
			Kind:   wificfg.EvStationDisconnected,
			SSID:   sta.SSID,
			Reason: reasonUnspecified,
		})
	}
}

const reasonUnspecified = 1

func (a *Adapter) SetMode(mode wificfg.Mode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if mode != wificfg.ModeStation && mode != wificfg.ModeOff {
		return wificfg.ErrInvalidMode
	}
	a.mode = mode
	return nil
}

// SetStorage accepts both policies; netlink drivers keep credentials in
// their own firmware and expose no storage control.
func (a *Adapter) SetStorage(wificfg.Storage) error { return nil }

func (a *Adapter) ConfigureStation(cfg wificfg.StationConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sta = cfg
	return nil
}

func (a *Adapter) ConfigureAccessPoint(wificfg.AccessPointConfig) error {
	return wificfg.ErrInvalidMode
}

// Connect joins the configured network on its own goroutine. NetConnect
// blocks until association completes, so outcomes surface as events.
func (a *Adapter) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != wificfg.ModeStation {
		return wificfg.ErrInvalidMode
	}
	if a.sta.SSID == "" {
		return wificfg.ErrInvalidConfig
	}
	sta := a.sta
	go func() {
		params := netlink.ConnectParams{
			Ssid:           sta.SSID,
			Passphrase:     sta.Passphrase,
			AuthType:       netlink.AuthTypeWPA2,
			ConnectTimeout: a.timeout,
		}
		if sta.Passphrase == "" {
			params.AuthType = netlink.AuthTypeOpen
		}
		if err := a.link.NetConnect(&params); err != nil {
			a.logerr("netlink connect failed",
				slog.String("ssid", sta.SSID),
				slog.String("err", err.Error()),
			)
			a.post(wificfg.DriverEvent{
				Kind:   wificfg.EvStationDisconnected,
				SSID:   sta.SSID,
				Reason: reasonUnspecified,
			})
		}
		// Success is reported by the driver's EventNetUp.
	}()
	return nil
}

func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	joined := a.joined
	a.mu.Unlock()
	if !joined {
		return wificfg.ErrNotConnected
	}
	a.link.NetDisconnect()
	return nil
}

func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != wificfg.ModeStation {
		return wificfg.ErrInvalidMode
	}
	a.running = true
	go a.post(wificfg.DriverEvent{Kind: wificfg.EvStationStart})
	return nil
}

func (a *Adapter) Stop() error {
	a.mu.Lock()
	running := a.running
	a.running = false
	a.mu.Unlock()
	if !running {
		return wificfg.ErrNotConnected
	}
	a.link.NetDisconnect()
	return nil
}

func (a *Adapter) SetSmartConfigKind(wificfg.SmartConfigKind) error {
	return errors.ErrUnsupported
}

func (a *Adapter) StopSmartConfig() error { return errors.ErrUnsupported }

func (a *Adapter) Notify(cb func(wificfg.DriverEvent)) {
	a.mu.Lock()
	a.notify = cb
	a.mu.Unlock()
}

func (a *Adapter) post(ev wificfg.DriverEvent) {
	a.mu.Lock()
	cb := a.notify
	a.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

func (a *Adapter) logerr(msg string, attrs ...slog.Attr) {
	if a.logger != nil {
		a.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
	}
}
