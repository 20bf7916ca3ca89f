package adc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"
)

// DefaultBaudRate is the baud rate of the converter board.
const DefaultBaudRate = 115200

// SerialConverter reads a 16-bit converter that streams one decimal result
// per line over a serial port. The latest result is kept as the result
// register.
type SerialConverter struct {
	port     string
	baudRate int

	conn   io.ReadWriteCloser
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	result atomic.Uint32
	valid  atomic.Bool
	errors atomic.Uint64
}

// NewSerialConverter creates a converter on the given port.
func NewSerialConverter(port string, baudRate int) *SerialConverter {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SerialConverter{
		port:     port,
		baudRate: baudRate,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open opens the serial port and starts reading results.
func (c *SerialConverter) Open() error {
	port, err := serial.Open(c.port, &serial.Mode{BaudRate: c.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", c.port, err)
	}
	c.attach(port)
	return nil
}

// attach starts reading results from conn.
func (c *SerialConverter) attach(conn io.ReadWriteCloser) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn
	c.done = make(chan struct{})
	go c.readResults(conn, c.done)
}

// Result returns the latest result, or ErrNoResult before the first one.
func (c *SerialConverter) Result() (uint16, error) {
	if !c.valid.Load() {
		return 0, ErrNoResult
	}
	return uint16(c.result.Load()), nil
}

// ParseErrors returns the number of lines that could not be parsed.
func (c *SerialConverter) ParseErrors() uint64 {
	return c.errors.Load()
}

// Close stops reading and closes the port.
func (c *SerialConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	<-c.done
	c.conn = nil
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

func (c *SerialConverter) readResults(conn io.Reader, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		v, err := parseLine(line)
		if err != nil {
			if c.errors.Add(1) == 1 {
				log.Printf("adc: failed to parse line %q: %v", line, err)
			}
			continue
		}

		c.result.Store(uint32(v))
		c.valid.Store(true)
	}

	if err := scanner.Err(); err != nil && c.ctx.Err() == nil {
		log.Printf("adc: error reading from serial port: %v", err)
	}
}
