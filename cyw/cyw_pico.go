//go:build pico

package cyw

import "github.com/soypat/cyw43439"

// NewPicoW returns an adapter driving the Pico W onboard CYW43439 over its
// PIO SPI bus.
func NewPicoW(cfg Config) (*Adapter, error) {
	if cfg.Device == nil {
		cfg.Device = cyw43439.NewPicoWDevice(cfg.Logger)
	}
	return New(cfg)
}
