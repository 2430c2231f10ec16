// Package pstat talks to the potentiostat over its command/response
// link and exposes parsed telemetry.
package pstat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/gopstat/pkg/log"
	"github.com/itohio/gopstat/pkg/telemetry"
)

const (
	// DefaultBaudRate is the instrument's standard baud rate.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the lines channel buffer.
	DefaultBufferSize = 256
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the potentiostat.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	lines     chan telemetry.Line
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewSerial creates a new device instance with the specified port, baud
// rate, and buffer size.
func NewSerial(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		lines:    make(chan telemetry.Line, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts the read loop.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines()

	return nil
}

// Close closes the connection and stops the read loop.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Warnf("error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	close(d.lines)

	return nil
}

// Lines returns the channel of parsed telemetry lines.
func (d *Serial) Lines() <-chan telemetry.Line {
	return d.lines
}

// Send writes one ASCII command to the instrument.
func (d *Serial) Send(cmd string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	if _, err := d.conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads lines from the serial port, parses them, and delivers
// them on the lines channel. The loop never blocks on a slow consumer:
// a full buffer drops the line so the transport read path stays live.
func (d *Serial) readLines() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Errorf("error reading from serial port: %v", err)
				}
				return
			}

			raw := strings.TrimSpace(scanner.Text())
			if raw == "" {
				continue
			}

			line := telemetry.Parse(raw)
			if line.Kind == telemetry.LineMalformed {
				// Malformed telemetry is recoverable: log and drop.
				log.Debugf("malformed line %q: %v", raw, line.Err)
				continue
			}

			select {
			case d.lines <- line:
			case <-d.ctx.Done():
				return
			default:
				log.Warnf("lines channel full, dropping %s line", line.Scan)
			}
		}
	}
}
