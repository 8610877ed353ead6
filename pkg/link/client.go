// Package link keeps the car connected to its command source and turns the
// incoming byte stream into command lines.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/autito/pkg/protocol"
)

const (
	// DefaultRetryInterval is the minimum time between two dial attempts.
	DefaultRetryInterval = 3 * time.Second
	// DefaultBufferSize is the capacity of the lines channel.
	DefaultBufferSize = 16
)

// ErrNotConnected is returned by Send while the transport is down.
var ErrNotConnected = errors.New("not connected")

// Dialer opens the transport.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

// Config tunes a Client.
type Config struct {
	RetryInterval time.Duration
	MaxLineLength int
	BufferSize    int
}

func (c *Config) ensureDefaults() {
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = protocol.DefaultMaxLineLength
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
}

// Client maintains a single transport connection, reconnecting whenever it
// drops, and delivers complete command lines on Lines.
type Client struct {
	dialer Dialer
	cfg    Config
	lines  chan string

	mu   sync.Mutex
	conn io.ReadWriteCloser
}

// NewClient creates a client for d. Run must be called to connect.
func NewClient(d Dialer, cfg Config) *Client {
	cfg.ensureDefaults()
	return &Client{
		dialer: d,
		cfg:    cfg,
		lines:  make(chan string, cfg.BufferSize),
	}
}

// Lines returns the channel of received lines. It is closed when Run returns.
func (c *Client) Lines() <-chan string {
	return c.lines
}

// Connected reports whether the transport is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes one line to the transport.
func (c *Client) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		// the reader notices the closed transport and reconnects
		c.conn.Close()
		return fmt.Errorf("failed to send %q: %w", line, err)
	}
	return nil
}

// Run connects and serves the transport until ctx is cancelled. Dial
// attempts are spaced at least RetryInterval apart, measured from the start
// of the previous attempt. Transport errors are logged and never returned.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.lines)

	var lastAttempt time.Time
	for {
		if !lastAttempt.IsZero() {
			wait := c.cfg.RetryInterval - time.Since(lastAttempt)
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		lastAttempt = time.Now()
		log.Printf("Connecting to %s", c.dialer)
		conn, err := c.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithField("addr", c.dialer.String()).Printf("Connect failed: %v", err)
			continue
		}
		log.Printf("Connected to %s", c.dialer)

		c.serve(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("Disconnected from %s", c.dialer)
	}
}

// serve reads conn until it fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context, conn io.ReadWriteCloser) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	buf := protocol.NewLineBuffer(c.cfg.MaxLineLength)
	chunk := make([]byte, 256)
	for {
		n, err := conn.Read(chunk)
		for _, b := range chunk[:n] {
			line, ok := buf.Feed(b)
			if !ok {
				continue
			}
			select {
			case c.lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("Error reading from %s: %v", c.dialer, err)
			}
			return
		}
	}
}
