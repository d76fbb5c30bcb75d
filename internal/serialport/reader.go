package serialport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// carryLimit caps bytes retained between calls while waiting for a newline.
// A noisy or misconfigured line would otherwise grow the buffer forever.
const carryLimit = 64 << 10

// Port is the slice of go.bug.st/serial.Port the reader needs. Tests
// substitute a scripted fake.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Reader pulls newline-delimited frames off a serial port. All access is
// serialized through one mutex: the board is a single shared stream and
// interleaved reads would tear frames apart.
type Reader struct {
	mu       sync.Mutex
	port     Port
	carry    []byte
	poll     time.Duration
	lineWait time.Duration
	attempts int
}

// Open connects to the configured device and prepares it for framed reads.
// The settle delay absorbs the board reboot that opening the port triggers;
// the input buffer flush drops whatever half-frame accumulated meanwhile.
func Open(cfg Config) (*Reader, error) {
	cfg = cfg.withDefaults()

	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", cfg.Device, err)
	}
	if err := port.SetReadTimeout(cfg.PollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Device, err)
	}

	time.Sleep(cfg.SettleDelay)
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush input buffer on %s: %w", cfg.Device, err)
	}

	return NewReader(port, cfg), nil
}

// NewReader wraps an already-opened port. Used by Open and by tests. A nil
// port yields a reader that reports disconnected and fails every read, which
// is how the process keeps serving health checks when the device is absent.
func NewReader(port Port, cfg Config) *Reader {
	cfg = cfg.withDefaults()
	return &Reader{
		port:     port,
		poll:     cfg.PollTimeout,
		lineWait: cfg.LineTimeout,
		attempts: cfg.Attempts,
	}
}

// ReadLine returns the next complete line from the port with surrounding
// whitespace trimmed. It makes the configured number of bounded attempts;
// blank lines are skipped within an attempt's deadline. A partial frame left
// at deadline is carried into the next call rather than discarded.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port == nil {
		return "", ErrNotConnected
	}

	var lastErr error = ErrLineTimeout
	for attempt := 0; attempt < r.attempts; attempt++ {
		line, err := r.nextLine(ctx)
		if err == nil {
			return line, nil
		}
		lastErr = err
		if err != ErrLineTimeout {
			break
		}
	}
	return "", lastErr
}

func (r *Reader) nextLine(ctx context.Context) (string, error) {
	deadline := time.Now().Add(r.lineWait)
	buf := make([]byte, 256)

	for {
		if line, ok := r.takeLine(); ok {
			return line, nil
		}
		if err := ctxErr(ctx); err != nil {
			return "", err
		}
		if !time.Now().Before(deadline) {
			return "", ErrLineTimeout
		}

		// The port's own timeout bounds this call, so Read returning
		// (0, nil) just means another quiet poll interval.
		n, err := r.port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("read serial frame: %w", err)
		}
		if n > 0 {
			r.carry = append(r.carry, buf[:n]...)
			if len(r.carry) > carryLimit {
				r.carry = r.carry[:0]
			}
		}
	}
}

// takeLine pops the first newline-terminated frame from the carry buffer,
// skipping frames that are blank after trimming.
func (r *Reader) takeLine() (string, bool) {
	for {
		i := bytes.IndexByte(r.carry, '\n')
		if i < 0 {
			return "", false
		}
		line := strings.TrimSpace(string(r.carry[:i]))
		r.carry = r.carry[i+1:]
		if line != "" {
			return line, true
		}
	}
}

// Connected reports whether the underlying port is open.
func (r *Reader) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port != nil
}

// Close releases the port. Subsequent reads fail with ErrNotConnected.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port == nil {
		return nil
	}
	err := r.port.Close()
	r.port = nil
	r.carry = nil
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}
