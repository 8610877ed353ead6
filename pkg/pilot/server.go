// Package pilot is the PC side of the link: it accepts the car's TCP
// connection, sends commands and collects the replies.
package pilot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/autito/pkg/protocol"
)

const (
	// DefaultListen is where the car connects to.
	DefaultListen = ":12345"
	// DefaultStreamPort is the camera stream port on the car.
	DefaultStreamPort = 8080
)

// ErrNoRobot is returned by Send while no car is connected.
var ErrNoRobot = errors.New("no robot connected")

// EventKind classifies server events.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventSent
	EventReply
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventSent:
		return "sent"
	case EventReply:
		return "reply"
	default:
		return "unknown"
	}
}

// Event is published to subscribers.
type Event struct {
	Kind  EventKind
	At    time.Time
	Addr  string
	Line  string
	Reply protocol.Reply
}

// Status describes the current connection.
type Status struct {
	Listen      string `json:"listen"`
	Connected   bool   `json:"connected"`
	RobotAddr   string `json:"robot_addr,omitempty"`
	StreamURL   string `json:"stream_url,omitempty"`
	LastCommand string `json:"last_command,omitempty"`
	LastReply   string `json:"last_reply,omitempty"`
}

// Server waits for the car. A new connection replaces the previous one.
type Server struct {
	listen     string
	streamPort int

	ln net.Listener

	mu          sync.Mutex
	conn        net.Conn
	lastCommand string
	lastReply   string
	subs        map[chan Event]struct{}
}

// NewServer creates a server listening on addr once Listen is called.
func NewServer(addr string, streamPort int) *Server {
	if addr == "" {
		addr = DefaultListen
	}
	if streamPort == 0 {
		streamPort = DefaultStreamPort
	}
	return &Server{
		listen:     addr,
		streamPort: streamPort,
		subs:       make(map[chan Event]struct{}),
	}
}

// Listen binds the TCP socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}
	s.ln = ln
	log.Printf("Waiting for the robot on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled. Listen is called if it
// has not been already.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() {
		s.ln.Close()
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})
	defer stop()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.conn = conn
		s.mu.Unlock()

		addr := conn.RemoteAddr().String()
		log.WithField("addr", addr).Print("Robot connected")
		s.publish(Event{Kind: EventConnected, Addr: addr})

		go s.receive(conn)
	}
}

func (s *Server) receive(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply := protocol.ParseReply(line)
		log.WithField("addr", addr).Debugf("<- %s", line)

		s.mu.Lock()
		if s.conn == conn {
			s.lastReply = line
		}
		s.mu.Unlock()
		s.publish(Event{Kind: EventReply, Addr: addr, Line: line, Reply: reply})
	}

	s.mu.Lock()
	current := s.conn == conn
	if current {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()

	if current {
		log.WithField("addr", addr).Print("Robot disconnected")
		s.publish(Event{Kind: EventDisconnected, Addr: addr})
	}
}

// Send writes one command line to the car.
func (s *Server) Send(line string) error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return ErrNoRobot
	}
	_, err := conn.Write([]byte(line + "\n"))
	if err == nil {
		s.lastCommand = line
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send %q: %w", line, err)
	}
	s.publish(Event{Kind: EventSent, Addr: conn.RemoteAddr().String(), Line: line})
	return nil
}

// Status returns the connection state.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Listen:      s.listen,
		LastCommand: s.lastCommand,
		LastReply:   s.lastReply,
	}
	if s.ln != nil {
		st.Listen = s.ln.Addr().String()
	}
	if s.conn != nil {
		st.Connected = true
		st.RobotAddr = s.conn.RemoteAddr().String()
		st.StreamURL = StreamURL(st.RobotAddr, s.streamPort)
	}
	return st
}

// StreamURL returns the camera stream of the car at addr.
func StreamURL(addr string, port int) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/stream"
}

// Subscribe returns a channel of events and a function to cancel the
// subscription. Events are dropped for subscribers that fall behind.
func (s *Server) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Server) publish(ev Event) {
	ev.At = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
