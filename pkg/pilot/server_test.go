package pilot

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/autito/pkg/driver"
	"github.com/itohio/autito/pkg/link"
	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/protocol"
	"github.com/itohio/autito/pkg/robot"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer("127.0.0.1:0", 0)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return s
}

func nextEvent(t *testing.T, events <-chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %v event", kind)
			return Event{}
		}
	}
}

func TestServer_SendWithoutRobot(t *testing.T) {
	s := NewServer("", 0)
	assert.ErrorIs(t, s.Send("PING"), ErrNoRobot)
	assert.False(t, s.Status().Connected)
	assert.Equal(t, DefaultListen, s.Status().Listen)
}

func TestServer_ExchangesLines(t *testing.T) {
	s := startServer(t)
	events, cancel := s.Subscribe()
	defer cancel()

	car, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer car.Close()

	nextEvent(t, events, EventConnected)
	st := s.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, car.LocalAddr().String(), st.RobotAddr)
	assert.Equal(t, "http://127.0.0.1:8080/stream", st.StreamURL)

	require.NoError(t, s.Send("PING"))
	line, err := bufio.NewReader(car).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "PING\n", line)

	_, err = car.Write([]byte("PONG\r\n"))
	require.NoError(t, err)
	ev := nextEvent(t, events, EventReply)
	assert.Equal(t, "PONG", ev.Line)
	assert.Equal(t, protocol.ReplyPing, ev.Reply.Kind)
	assert.Equal(t, "PONG", s.Status().LastReply)
	assert.Equal(t, "PING", s.Status().LastCommand)

	car.Close()
	nextEvent(t, events, EventDisconnected)
	assert.False(t, s.Status().Connected)
	assert.ErrorIs(t, s.Send("PING"), ErrNoRobot)
}

func TestServer_NewConnectionReplacesOld(t *testing.T) {
	s := startServer(t)
	events, cancel := s.Subscribe()
	defer cancel()

	first, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer first.Close()
	nextEvent(t, events, EventConnected)

	second, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer second.Close()
	nextEvent(t, events, EventConnected)

	// the old connection is closed by the server
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = first.Read(make([]byte, 1))
	assert.Error(t, err)

	require.NoError(t, s.Send("STOP"))
	line, err := bufio.NewReader(second).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "STOP\n", line)
	assert.Equal(t, second.LocalAddr().String(), s.Status().RobotAddr)
}

func TestStreamURL(t *testing.T) {
	assert.Equal(t, "http://192.168.4.7:8080/stream", StreamURL("192.168.4.7:51234", 8080))
	assert.Equal(t, "http://[fe80::1]:81/stream", StreamURL("[fe80::1]:2000", 81))
	assert.Equal(t, "http://car:8080/stream", StreamURL("car", 8080))
}

// TestPilotDrivesRobot runs a complete car against the pilot over TCP.
func TestPilotDrivesRobot(t *testing.T) {
	s := startServer(t)
	events, cancel := s.Subscribe()
	defer cancel()

	out := driver.NewMock(nil, 1023)
	client := link.NewClient(link.TCPDialer{Addr: s.Addr().String()}, link.Config{RetryInterval: 50 * time.Millisecond})
	car := robot.New(motor.New(motor.DefaultConfig(), out), client)

	ctx, stop := context.WithCancel(context.Background())
	carDone := make(chan error, 1)
	go func() { carDone <- car.Run(ctx) }()
	defer func() {
		stop()
		<-carDone
	}()

	nextEvent(t, events, EventConnected)

	d := NewDriver(255, 0)
	cmds, _ := d.Key(KeyUp)
	for _, cmd := range cmds {
		require.NoError(t, s.Send(cmd))
	}
	ev := nextEvent(t, events, EventReply)
	assert.Equal(t, "ACK ALL F 255", ev.Line)

	assert.Eventually(t, func() bool {
		return out.Duty(motor.Motor1) == 1023 && out.Duty(motor.Motor2) == 1023
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Send("MOTOR 7 F 1"))
	ev = nextEvent(t, events, EventReply)
	assert.Equal(t, protocol.ReplyError, ev.Reply.Kind)
	assert.Equal(t, "ERR MOTOR numero invalido", ev.Line)

	cmds, _ = d.Key(KeySpace)
	require.NoError(t, s.Send(cmds[0]))
	assert.Equal(t, "ACK STOP", nextEvent(t, events, EventReply).Line)
	assert.Eventually(t, func() bool {
		return out.Duty(motor.Motor1) == 0 && out.Duty(motor.Motor2) == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, out.Violations())
}
