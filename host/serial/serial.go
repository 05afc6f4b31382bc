// Package serial opens the USB CDC or UART link to the MCU.
package serial

import (
	"errors"
	"io"
	"time"
)

var ErrNoDevice = errors.New("no serial device configured")

// Port is the byte stream the host transport runs over. Tests substitute
// an in-memory pipe.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port settings.
type Config struct {
	// Device path, e.g. /dev/ttyACM0 or COM3.
	Device string

	// Baud rate. USB CDC ignores it; UART links need it to match the firmware.
	Baud int

	// ReadTimeout bounds a single Read so the reader can notice Close.
	// Zero blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns the Klipper defaults for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}

func (c *Config) validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		c.Baud = 250000
	}
	return nil
}
