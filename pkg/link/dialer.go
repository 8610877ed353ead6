package link

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is used for serial links.
	DefaultBaudRate = 115200
	// DefaultDialTimeout bounds a single TCP connect.
	DefaultDialTimeout = 2 * time.Second
)

// TCPDialer connects to the pilot over TCP.
type TCPDialer struct {
	Addr    string
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", d.Addr, err)
	}
	return conn, nil
}

func (d TCPDialer) String() string {
	return "tcp://" + d.Addr
}

// SerialDialer opens a serial port.
type SerialDialer struct {
	Port     string
	BaudRate int
}

func (d SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	baud := d.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(d.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", d.Port, err)
	}
	return port, nil
}

func (d SerialDialer) String() string {
	return "serial://" + d.Port
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports. USB adapters are
// described by their product name and VID:PID.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		names, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", err)
		}
		result := make([]Port, 0, len(names))
		for _, name := range names {
			result = append(result, Port{Name: name, Description: name})
		}
		return result, nil
	}

	result := make([]Port, 0, len(details))
	for _, p := range details {
		desc := p.Name
		if p.IsUSB {
			desc = fmt.Sprintf("%s (%s:%s)", p.Product, p.VID, p.PID)
			if p.SerialNumber != "" {
				desc += " " + p.SerialNumber
			}
		}
		result = append(result, Port{Name: p.Name, Description: desc})
	}
	return result, nil
}
