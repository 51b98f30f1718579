package wificfg

import "sync"

// fakeDriver records the call sequence and returns injected errors, and lets
// tests post events as if from the driver's own goroutine.
type fakeDriver struct {
	mu     sync.Mutex
	calls  []string
	notify func(DriverEvent)

	setupErr      error
	modeErr       error
	storageErr    error
	staCfgErr     error
	apCfgErr      error
	connectErr    error
	disconnectErr error
	startErr      error
	stopErr       error
	scKindErr     error
	scStopErr     error

	setups  int
	mode    Mode
	storage Storage
	sta     StationConfig
	ap      AccessPointConfig
}

func (d *fakeDriver) record(name string) {
	d.mu.Lock()
	d.calls = append(d.calls, name)
	d.mu.Unlock()
}

func (d *fakeDriver) callSeq() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDriver) Setup() error {
	d.record("setup")
	d.mu.Lock()
	d.setups++
	d.mu.Unlock()
	return d.setupErr
}

func (d *fakeDriver) SetMode(m Mode) error {
	d.record("setmode")
	if d.modeErr != nil {
		return d.modeErr
	}
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) SetStorage(s Storage) error {
	d.record("setstorage")
	if d.storageErr != nil {
		return d.storageErr
	}
	d.mu.Lock()
	d.storage = s
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) ConfigureStation(cfg StationConfig) error {
	d.record("stacfg")
	if d.staCfgErr != nil {
		return d.staCfgErr
	}
	d.mu.Lock()
	d.sta = cfg
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) ConfigureAccessPoint(cfg AccessPointConfig) error {
	d.record("apcfg")
	if d.apCfgErr != nil {
		return d.apCfgErr
	}
	d.mu.Lock()
	d.ap = cfg
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Connect() error {
	d.record("connect")
	return d.connectErr
}

func (d *fakeDriver) Disconnect() error {
	d.record("disconnect")
	return d.disconnectErr
}

func (d *fakeDriver) Start() error {
	d.record("start")
	return d.startErr
}

func (d *fakeDriver) Stop() error {
	d.record("stop")
	return d.stopErr
}

func (d *fakeDriver) SetSmartConfigKind(SmartConfigKind) error {
	d.record("sckind")
	return d.scKindErr
}

func (d *fakeDriver) StopSmartConfig() error {
	d.record("scstop")
	return d.scStopErr
}

func (d *fakeDriver) Notify(cb func(DriverEvent)) {
	d.mu.Lock()
	d.notify = cb
	d.mu.Unlock()
}

// post delivers an event to the registered callback, as the driver would
// from its own goroutine.
func (d *fakeDriver) post(ev DriverEvent) {
	d.mu.Lock()
	cb := d.notify
	d.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

func newTestManager(drv *fakeDriver) *Manager {
	m, err := New(Config{Driver: drv})
	if err != nil {
		panic(err)
	}
	return m
}
