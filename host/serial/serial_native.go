package serial

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// flusher is the part of *serial.Port beyond io.ReadWriteCloser.
type flusher interface {
	io.ReadWriteCloser
	Flush() error
}

type nativePort struct {
	port flusher
}

// Open opens a native serial port.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("serial: nil config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &nativePort{port: port}, nil
}

func (p *nativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *nativePort) Write(b []byte) (int, error) { return p.port.Write(b) }

// Close discards pending I/O and closes the port. The port is closed even
// when the flush fails.
func (p *nativePort) Close() error {
	flushErr := p.port.Flush()
	if err := p.port.Close(); err != nil {
		return errors.Join(flushErr, err)
	}
	if flushErr != nil {
		return fmt.Errorf("flush: %w", flushErr)
	}
	return nil
}
