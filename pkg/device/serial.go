package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/gopem/pkg/envlimits"
	"go.bug.st/serial"
)

const (
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100

	// ledFieldLen is the number of LED state digits in a telemetry frame:
	// low, ok, high, critical energy LEDs plus net gain and net loss LEDs.
	ledFieldLen = 6
)

// Frame represents one telemetry line from the rig.
type Frame struct {
	Timestamp time.Time
	Volume    int64  // Reservoir volume (pool units, PoolEmpty..PoolFull)
	Inflow    int64  // Net volume change over the last log interval
	Regulator uint16 // Speed regulator reading (analog read range)

	// Energy level LEDs
	LowLED      bool
	OKLED       bool
	HighLED     bool
	CriticalLED bool

	// Net inflow LEDs
	GainLED bool
	LossLED bool
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the pool energy rig.
type Serial struct {
	port    string
	lim     envlimits.Limits
	bufSize int

	conn      serial.Port
	frames    chan Frame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device for the given port. The baud rate comes
// from the limits table; it is part of the wiring contract, not a tunable.
func New(port string, lim envlimits.Limits, bufSize int) *Serial {
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		lim:       lim,
		bufSize:   bufSize,
		frames:    make(chan Frame, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
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
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect connects to the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.lim.BaudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Start reading frames in a goroutine
	go d.readFrames()

	return nil
}

// Close closes the connection and stops reading frames.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	// Cancel context to stop reading goroutine
	d.cancel()

	// Close serial port
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	// Close frames channel
	close(d.frames)

	return nil
}

// Frames returns the channel for reading telemetry frames.
func (d *Serial) Frames() <-chan Frame {
	return d.frames
}

// SetMotor sends a motor on/off command, mirroring the rig's ON and OFF
// push-buttons.
func (d *Serial) SetMotor(on bool) error {
	if on {
		return d.writeCommand("1\n")
	}
	return d.writeCommand("0\n")
}

// ToggleMotor sends a motor toggle command, mirroring the rig's TOGGLE
// push-button.
func (d *Serial) ToggleMotor() error {
	return d.writeCommand("T\n")
}

// SetValve sends a release valve open/close command.
func (d *Serial) SetValve(open bool) error {
	if open {
		return d.writeCommand("V1\n")
	}
	return d.writeCommand("V0\n")
}

func (d *Serial) writeCommand(cmd string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("failed to send command %q: %w", strings.TrimSpace(cmd), err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readFrames reads lines from the serial port and parses them into Frames.
func (d *Serial) readFrames() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readFrames: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF or error)
				if err := scanner.Err(); err != nil {
					if err != io.EOF {
						log.Printf("Error reading from serial port: %v", err)
					}
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			frame, err := parseFrame(line, d.lim)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			// Send frame to channel (non-blocking)
			select {
			case d.frames <- frame:
			case <-d.ctx.Done():
				return
			default:
				// Channel full, log and skip
				log.Printf("Frames channel full, dropping frame")
			}
		}
	}
}

// parseFrame parses a telemetry line from the rig.
// Format: unix_millis,volume,inflow,regulator,LLLLLL
// where LLLLLL are the low/ok/high/critical energy LEDs followed by the
// net gain and net loss LEDs.
// Example: 1234567890123,1500000,1200,512,010010
func parseFrame(line string, lim envlimits.Limits) (Frame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return Frame{}, fmt.Errorf("invalid frame format: expected 5 comma-separated values, got %d", len(parts))
	}

	// Parse timestamp (unix milliseconds)
	timestampMillis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	timestamp := time.Unix(0, timestampMillis*int64(time.Millisecond))

	// Parse volume
	volume, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid volume: %w", err)
	}
	if volume < lim.PoolEmpty || volume > lim.PoolFull {
		return Frame{}, fmt.Errorf("volume out of range: %d (pool is %d..%d)", volume, lim.PoolEmpty, lim.PoolFull)
	}

	// Parse inflow
	inflow, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid inflow: %w", err)
	}
	if inflow > lim.InflowAbsMax || inflow < -lim.InflowAbsMax {
		return Frame{}, fmt.Errorf("inflow out of range: %d (max ±%d)", inflow, lim.InflowAbsMax)
	}

	// Parse regulator reading
	regulator, err := strconv.ParseUint(parts[3], 10, 16)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid regulator reading: %w", err)
	}
	if int(regulator) > lim.MaxAnalogRead {
		return Frame{}, fmt.Errorf("regulator reading out of range: %d (max %d)", regulator, lim.MaxAnalogRead)
	}

	// Parse LED states
	ledStr := parts[4]
	if len(ledStr) != ledFieldLen {
		return Frame{}, fmt.Errorf("invalid LED states: expected %d digits, got %d", ledFieldLen, len(ledStr))
	}
	for i := range ledFieldLen {
		if ledStr[i] != '0' && ledStr[i] != '1' {
			return Frame{}, fmt.Errorf("invalid LED state character %q", ledStr[i])
		}
	}

	return Frame{
		Timestamp:   timestamp,
		Volume:      volume,
		Inflow:      inflow,
		Regulator:   uint16(regulator),
		LowLED:      ledStr[0] == '1',
		OKLED:       ledStr[1] == '1',
		HighLED:     ledStr[2] == '1',
		CriticalLED: ledStr[3] == '1',
		GainLED:     ledStr[4] == '1',
		LossLED:     ledStr[5] == '1',
	}, nil
}
