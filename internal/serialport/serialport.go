// Package serialport reads newline-delimited sensor frames from the AQI
// board. The real reader wraps a go.bug.st/serial port; a simulated source
// stands in when no hardware is attached. Both hand out raw lines only,
// decoding belongs to the ingest package.
package serialport

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected reports a read against a closed or never-opened port.
	ErrNotConnected = errors.New("serial port not connected")
	// ErrLineTimeout reports that no complete line arrived within the
	// configured wait.
	ErrLineTimeout = errors.New("timed out waiting for sensor line")
)

// Config describes how to open and read the sensor port.
type Config struct {
	Device      string        // e.g. /dev/ttyUSB0
	BaudRate    int           // firmware ships 115200
	PollTimeout time.Duration // hardware read timeout per poll
	LineTimeout time.Duration // max wait for one complete line per attempt
	SettleDelay time.Duration // boards reset on open; wait before first read
	Attempts    int           // bounded line attempts per ReadLine call
}

// DefaultConfig mirrors the firmware's serial settings.
func DefaultConfig() Config {
	return Config{
		Device:      "/dev/ttyUSB0",
		BaudRate:    115200,
		PollTimeout: time.Second,
		LineTimeout: time.Second,
		SettleDelay: 3 * time.Second,
		Attempts:    1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Device == "" {
		c.Device = d.Device
	}
	if c.BaudRate <= 0 {
		c.BaudRate = d.BaudRate
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.LineTimeout <= 0 {
		c.LineTimeout = d.LineTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.Attempts <= 0 {
		c.Attempts = d.Attempts
	}
	return c
}

// ctxErr maps a cancelled context onto the package's timeout sentinel so
// callers see one failure shape for "no line in time".
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLineTimeout
		}
		return err
	}
	return nil
}
