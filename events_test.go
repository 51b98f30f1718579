package wificfg

import (
	"testing"
	"time"
)

func TestEventBitsWaitTimeout(t *testing.T) {
	eb := newEventBits()
	start := time.Now()
	got := eb.Wait(allEventBits, 20*time.Millisecond)
	if got != 0 {
		t.Errorf("expected timeout, got bits %#x", got)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("wait returned before timeout elapsed")
	}
}

func TestEventBitsSetBeforeWait(t *testing.T) {
	eb := newEventBits()
	eb.Set(connectedBit)
	got := eb.Wait(allEventBits, time.Second)
	if got != connectedBit {
		t.Errorf("got bits %#x", got)
	}
	// Clear-on-exit: the bit is consumed.
	if eb.Get() != 0 {
		t.Errorf("bits not cleared: %#x", eb.Get())
	}
}

func TestEventBitsWakesWaiter(t *testing.T) {
	eb := newEventBits()
	go func() {
		time.Sleep(10 * time.Millisecond)
		eb.Set(disconnectedBit)
	}()
	got := eb.Wait(allEventBits, time.Second)
	if got != disconnectedBit {
		t.Errorf("got bits %#x", got)
	}
}

func TestEventBitsClear(t *testing.T) {
	eb := newEventBits()
	eb.Set(connectedBit | smartConfigDoneBit)
	eb.Clear(connectedBit)
	if eb.Get() != smartConfigDoneBit {
		t.Errorf("got bits %#x", eb.Get())
	}
}

func TestWaitEventPriorityOrder(t *testing.T) {
	drv := &fakeDriver{}
	m := newTestManager(drv)

	// All three pending: connected wins and consumes the rest.
	m.events.Set(connectedBit | disconnectedBit | smartConfigDoneBit)
	if ev := m.WaitEvent(time.Second); ev != EventConnected {
		t.Errorf("got %v, want connected", ev)
	}
	if ev := m.WaitEvent(10 * time.Millisecond); ev != EventTimeout {
		t.Errorf("got %v, want timeout after bits consumed", ev)
	}

	m.events.Set(disconnectedBit | smartConfigDoneBit)
	if ev := m.WaitEvent(time.Second); ev != EventDisconnected {
		t.Errorf("got %v, want disconnected", ev)
	}

	m.events.Set(smartConfigDoneBit)
	if ev := m.WaitEvent(time.Second); ev != EventSmartConfigStopped {
		t.Errorf("got %v, want smartconfig stopped", ev)
	}
}

func TestHandlerGotIP(t *testing.T) {
	drv := &fakeDriver{}
	m := newTestManager(drv)
	if err := m.InitStation(); err != nil {
		t.Fatal(err)
	}

	drv.post(DriverEvent{Kind: EvGotIP})
	if !m.IsStationConnected() {
		t.Error("station not marked connected after got-IP")
	}
	if m.events.Get()&connectedBit == 0 {
		t.Error("connected bit not set after got-IP")
	}
	if ev := m.WaitEvent(time.Second); ev != EventConnected {
		t.Errorf("got %v, want connected", ev)
	}
}

func TestHandlerDisconnect(t *testing.T) {
	drv := &fakeDriver{}
	m := newTestManager(drv)
	if err := m.InitStation(); err != nil {
		t.Fatal(err)
	}

	drv.post(DriverEvent{Kind: EvGotIP})
	drv.post(DriverEvent{Kind: EvStationDisconnected, SSID: "router", Reason: 8})
	if m.IsStationConnected() {
		t.Error("station still marked connected after disconnect")
	}
	// Disconnect clears the connected bit and sets its own.
	if ev := m.WaitEvent(time.Second); ev != EventDisconnected {
		t.Errorf("got %v, want disconnected", ev)
	}
}

func TestHandlerSmartConfigDone(t *testing.T) {
	drv := &fakeDriver{}
	m := newTestManager(drv)
	if err := m.InitStation(); err != nil {
		t.Fatal(err)
	}

	drv.post(DriverEvent{Kind: EvSmartConfigDone})
	if ev := m.WaitEvent(time.Second); ev != EventSmartConfigStopped {
		t.Errorf("got %v, want smartconfig stopped", ev)
	}
}

func TestHandlerSmartConfigCredsReconnects(t *testing.T) {
	drv := &fakeDriver{}
	m := newTestManager(drv)
	if err := m.InitStation(); err != nil {
		t.Fatal(err)
	}
	drv.mu.Lock()
	drv.calls = nil
	drv.mu.Unlock()

	drv.post(DriverEvent{Kind: EvSmartConfigCreds, SSID: "provisioned", Passphrase: "pw12345678"})
	want := []string{"disconnect", "stacfg", "connect"}
	got := drv.callSeq()
	if len(got) != len(want) {
		t.Fatalf("call sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call sequence %v, want %v", got, want)
		}
	}
	if drv.sta.SSID != "provisioned" {
		t.Errorf("station config not applied: %+v", drv.sta)
	}
}

func TestStopSmartConfigClearsPendingBits(t *testing.T) {
	drv := &fakeDriver{}
	m := newTestManager(drv)
	if err := m.InitStation(); err != nil {
		t.Fatal(err)
	}

	drv.post(DriverEvent{Kind: EvGotIP})
	if err := m.StopSmartConfig(); err != nil {
		t.Fatal(err)
	}
	if ev := m.WaitEvent(10 * time.Millisecond); ev != EventTimeout {
		t.Errorf("got %v, want timeout after bits cleared", ev)
	}
}
