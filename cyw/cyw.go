// Package cyw adapts the CYW43439 chip driver (Raspberry Pi Pico W) to the
// wificfg.Driver interface. Association is performed by the chip firmware;
// address acquisition runs a DHCP client on a userspace port stack, and its
// completion is what produces the got-IP event.
package cyw

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"time"

	"log/slog"

	"github.com/picoprov/wificfg"
	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
	"golang.org/x/exp/constraints"
)

const mtu = cyw43439.MTU

// 802.11 reason code for failures the chip does not attribute.
const reasonUnspecified = 1

const (
	dhcpPollInterval = time.Second / 2
	dhcpMaxPolls     = 15
	linkPollInterval = time.Second
)

// Config configures the adapter.
type Config struct {
	// Device is the initialized-or-not chip handle. Required; on the Pico W
	// use NewPicoW which constructs it.
	Device *cyw43439.Device
	Logger *slog.Logger
	// Hostname requested from the DHCP server.
	Hostname string
	// RequestedIP is requested from DHCP and used as a static fallback when
	// no server answers. Empty disables the fallback.
	RequestedIP string
	// TCPPorts and UDPPorts size the port stack for application use. One
	// extra UDP port is always added for the DHCP client.
	TCPPorts uint16
	UDPPorts uint16
}

// Adapter implements wificfg.Driver on a CYW43439.
type Adapter struct {
	mu     sync.Mutex
	dev    *cyw43439.Device
	logger *slog.Logger
	notify func(wificfg.DriverEvent)

	mode    wificfg.Mode
	sta     wificfg.StationConfig
	ap      wificfg.AccessPointConfig
	reqAddr netip.Addr

	hostname string
	tcpPorts uint16
	udpPorts uint16

	// cancel is closed to stop the packet and link-watch loops of the
	// current association.
	cancel  chan struct{}
	joined  bool
	running bool

	stack *stacks.PortStack
	dhcpc *stacks.DHCPClient
}

var _ wificfg.Driver = (*Adapter)(nil)

// New returns an adapter around cfg.Device. The chip is not touched until
// Setup.
func New(cfg Config) (*Adapter, error) {
	if cfg.Device == nil {
		return nil, errors.New("nil cyw43439 device")
	}
	a := &Adapter{
		dev:      cfg.Device,
		logger:   cfg.Logger,
		hostname: cfg.Hostname,
		tcpPorts: cfg.TCPPorts,
		udpPorts: cfg.UDPPorts + 1, // DHCP client port.
	}
	if cfg.RequestedIP != "" {
		addr, err := netip.ParseAddr(cfg.RequestedIP)
		if err != nil {
			return nil, err
		}
		a.reqAddr = addr
	}
	return a, nil
}

// Setup flashes firmware and brings the chip to its idle initialized state.
func (a *Adapter) Setup() error {
	start := time.Now()
	err := a.dev.Init(cyw43439.DefaultWifiConfig())
	if err != nil {
		return errors.New("cyw43439 init failed: " + err.Error())
	}
	a.info("cyw43439:Init", slog.Duration("took", time.Since(start)))
	return nil
}

func (a *Adapter) SetMode(mode wificfg.Mode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	// The chip firmware runs one interface at a time through this API.
	if mode == wificfg.ModeAPSTA {
		return wificfg.ErrInvalidMode
	}
	a.mode = mode
	return nil
}

// SetStorage accepts both policies. The chip has no host-visible config
// store; credentials live in adapter memory either way.
func (a *Adapter) SetStorage(wificfg.Storage) error { return nil }

func (a *Adapter) ConfigureStation(cfg wificfg.StationConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sta = cfg
	return nil
}

func (a *Adapter) ConfigureAccessPoint(cfg wificfg.AccessPointConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cfg.Auth != wificfg.AuthOpen && len(cfg.Passphrase) < 8 {
		return wificfg.ErrInvalidConfig
	}
	a.ap = cfg
	return nil
}

// Connect begins association with the configured network. The join and the
// DHCP exchange run on their own goroutine; outcomes surface as events.
func (a *Adapter) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != wificfg.ModeStation {
		return wificfg.ErrInvalidMode
	}
	if a.sta.SSID == "" {
		return wificfg.ErrInvalidConfig
	}
	if a.joined {
		close(a.cancel)
	}
	a.cancel = make(chan struct{})
	a.joined = true
	go a.joinAndAcquire(a.sta, a.cancel)
	return nil
}

func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.joined {
		return wificfg.ErrNotConnected
	}
	close(a.cancel)
	a.joined = false
	return nil
}

// Start brings the configured interface up. In AP mode this starts the soft
// AP; in station mode the interface is ready for Connect.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.mode {
	case wificfg.ModeAccessPoint:
		err := a.dev.StartAP(a.ap.SSID, a.ap.Passphrase, a.ap.Channel)
		if err != nil {
			return err
		}
		a.running = true
		go a.postLocked(wificfg.DriverEvent{Kind: wificfg.EvAPStart, Channel: a.ap.Channel})
	case wificfg.ModeStation:
		a.running = true
		go a.postLocked(wificfg.DriverEvent{Kind: wificfg.EvStationStart})
	default:
		return wificfg.ErrInvalidMode
	}
	return nil
}

func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return wificfg.ErrNotConnected
	}
	if a.joined {
		close(a.cancel)
		a.joined = false
	}
	wasAP := a.mode == wificfg.ModeAccessPoint
	a.running = false
	if wasAP {
		go a.postLocked(wificfg.DriverEvent{Kind: wificfg.EvAPStop})
	}
	return nil
}

// The chip firmware carries no ESP-Touch style provisioning listener.
func (a *Adapter) SetSmartConfigKind(wificfg.SmartConfigKind) error {
	return errors.ErrUnsupported
}

func (a *Adapter) StopSmartConfig() error { return errors.ErrUnsupported }

// Stack returns the port stack of the current association, for opening TCP
// and UDP sockets. Nil before the got-IP event.
func (a *Adapter) Stack() *stacks.PortStack {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stack
}

// DHCP returns the DHCP client of the current association, for lease details
// such as the router and DNS servers. Nil before the got-IP event.
func (a *Adapter) DHCP() *stacks.DHCPClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dhcpc
}

func (a *Adapter) Notify(cb func(wificfg.DriverEvent)) {
	a.mu.Lock()
	a.notify = cb
	a.mu.Unlock()
}

func (a *Adapter) postLocked(ev wificfg.DriverEvent) {
	a.mu.Lock()
	cb := a.notify
	a.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// joinAndAcquire associates with the network and then runs the DHCP exchange
// that produces EvGotIP. It keeps watching link state until cancel closes.
func (a *Adapter) joinAndAcquire(sta wificfg.StationConfig, cancel chan struct{}) {
	err := a.dev.Join(sta.SSID, cyw43439.JoinOptions{Passphrase: sta.Passphrase})
	if err != nil {
		a.logerr("join failed", slog.String("ssid", sta.SSID), slog.String("err", err.Error()))
		a.postLocked(wificfg.DriverEvent{
			Kind:   wificfg.EvStationDisconnected,
			SSID:   sta.SSID,
			Reason: reasonUnspecified,
		})
		return
	}
	a.postLocked(wificfg.DriverEvent{Kind: wificfg.EvStationConnected, SSID: sta.SSID})

	mac, err := a.dev.HardwareAddr6()
	if err != nil {
		a.logerr("hwaddr read failed", slog.String("err", err.Error()))
		return
	}
	stack := stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: int(a.udpPorts),
		MaxOpenPortsTCP: int(a.tcpPorts),
		MTU:             mtu,
		Logger:          a.logger,
	})
	a.dev.RecvEthHandle(stack.RecvEth)
	a.mu.Lock()
	a.stack = stack
	a.mu.Unlock()
	go a.nicLoop(stack, cancel)

	addr, ok := a.acquireAddr(stack, cancel)
	if !ok {
		return
	}
	stack.SetAddr(addr)
	a.postLocked(wificfg.DriverEvent{Kind: wificfg.EvGotIP, SSID: sta.SSID, Addr: addr})

	a.watchLink(sta, cancel)
}

// acquireAddr runs the DHCP exchange, falling back to the requested static
// address when no server answers in time.
func (a *Adapter) acquireAddr(stack *stacks.PortStack, cancel chan struct{}) (netip.Addr, bool) {
	dhcpc := stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	a.mu.Lock()
	a.dhcpc = dhcpc
	a.mu.Unlock()
	err := dhcpc.BeginRequest(stacks.DHCPRequestConfig{
		RequestedAddr: a.reqAddr,
		Xid:           uint32(time.Now().Nanosecond()),
		Hostname:      a.hostname,
	})
	if err != nil {
		a.logerr("dhcp begin failed", slog.String("err", err.Error()))
		return netip.Addr{}, false
	}
	for i := 0; !dhcpc.IsDone(); i++ {
		if i >= dhcpMaxPolls {
			if !a.reqAddr.IsValid() {
				a.logerr("dhcp did not complete and no static IP requested")
				return netip.Addr{}, false
			}
			a.info("dhcp did not complete, using static IP", slog.String("ip", a.reqAddr.String()))
			return a.reqAddr, true
		}
		select {
		case <-cancel:
			return netip.Addr{}, false
		case <-time.After(dhcpPollInterval):
		}
	}
	ip := dhcpc.Offer()
	a.info("dhcp complete",
		slog.String("ip", ip.String()),
		slog.String("router", dhcpc.Router().String()),
		slog.Duration("lease", dhcpc.IPLeaseTime()),
	)
	return ip, true
}

// watchLink posts a disconnect event when the chip reports link loss.
func (a *Adapter) watchLink(sta wificfg.StationConfig, cancel chan struct{}) {
	for {
		select {
		case <-cancel:
			return
		case <-time.After(linkPollInterval):
		}
		if !a.dev.IsLinkUp() {
			a.postLocked(wificfg.DriverEvent{
				Kind:   wificfg.EvStationDisconnected,
				SSID:   sta.SSID,
				Reason: reasonUnspecified,
			})
			return
		}
	}
}

const backoffMax = 500 * time.Millisecond

// stallBackoff is the idle sleep after stalled consecutive empty polls,
// doubling up to backoffMax. The shift is clamped so long idle periods do not
// overflow the duration into a busy poll.
func stallBackoff(stalled int) time.Duration {
	const maxShift = 29 // 1<<29 ns already exceeds backoffMax.
	if stalled > maxShift {
		stalled = maxShift
	}
	sleep := time.Duration(1) << stalled
	if sleep > backoffMax {
		sleep = backoffMax
	}
	return sleep
}

// nicLoop moves packets between the chip and the port stack until cancel
// closes. Backs off exponentially while both directions stall.
func (a *Adapter) nicLoop(stack *stacks.PortStack, cancel chan struct{}) {
	// Keep the tx buffer 4-byte aligned in length for the SPI transfers
	// underneath SendEth.
	txbuf := make([]byte, alignup(uint32(mtu), 4))
	stalled := 0
	for {
		select {
		case <-cancel:
			return
		default:
		}
		gotPacket, err := a.dev.PollOne()
		if err != nil {
			a.logerr("nic poll", slog.String("err", err.Error()))
		}
		n, err := stack.HandleEth(txbuf[:mtu])
		if err != nil {
			a.logerr("stack handle", slog.String("err", err.Error()))
			n = 0
		}
		if n > 0 {
			if err := a.dev.SendEth(txbuf[:n]); err != nil {
				a.logerr("nic send", slog.String("err", err.Error()))
			}
		}
		if gotPacket || n > 0 {
			stalled = 0
			continue
		}
		stalled++
		time.Sleep(stallBackoff(stalled))
	}
}

func (a *Adapter) info(msg string, attrs ...slog.Attr) {
	a.logattrs(slog.LevelInfo, msg, attrs...)
}

func (a *Adapter) logerr(msg string, attrs ...slog.Attr) {
	a.logattrs(slog.LevelError, msg, attrs...)
}

func (a *Adapter) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if a.logger != nil {
		a.logger.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

// alignup rounds val up to the nearest multiple of align, a power of 2.
func alignup[T constraints.Unsigned](val, align T) T {
	return (val + align - 1) &^ (align - 1)
}
