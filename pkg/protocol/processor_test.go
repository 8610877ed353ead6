package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/autito/pkg/motor"
)

type target struct {
	m       motor.Motor
	speed   uint8
	forward bool
}

type fakeController struct {
	targets []target
	stops   int
	reject  motor.Motor // SetTarget fails for this motor
}

func (f *fakeController) SetTarget(m motor.Motor, speed uint8, forward bool) error {
	if !m.Valid() || m == f.reject {
		return motor.ErrInvalidMotor
	}
	f.targets = append(f.targets, target{m, speed, forward})
	return nil
}

func (f *fakeController) StopAll() { f.stops++ }

func TestProcessLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		reply   string
		stops   int
		targets []target
	}{
		{"stop", "STOP", ReplyStop, 1, nil},
		{"stop lower", "stop", ReplyStop, 1, nil},
		{"stop padded", "  STOP  ", ReplyStop, 1, nil},
		{"stop tabs", "\tStOp\r", ReplyStop, 1, nil},
		{"ping", "ping", ReplyPong, 0, nil},
		{"all forward", "ALL F 150", "ACK ALL F 150", 0, []target{{1, 150, true}, {2, 150, true}}},
		{"all lower", "all f 10", "ACK ALL F 10", 0, []target{{1, 10, true}, {2, 10, true}}},
		{"all reverse", "ALL R 90", "ACK ALL R 90", 0, []target{{1, 90, false}, {2, 90, false}}},
		{"all any direction is reverse", "ALL X 90", "ACK ALL R 90", 0, []target{{1, 90, false}, {2, 90, false}}},
		{"all clamps high", "ALL F 300", "ACK ALL F 255", 0, []target{{1, 255, true}, {2, 255, true}}},
		{"all clamps negative", "ALL F -20", "ACK ALL F 0", 0, []target{{1, 0, true}, {2, 0, true}}},
		{"all garbage speed", "ALL F abc", "ACK ALL F 0", 0, []target{{1, 0, true}, {2, 0, true}}},
		{"all digit prefix", "ALL F 12abc", "ACK ALL F 12", 0, []target{{1, 12, true}, {2, 12, true}}},
		{"motor 1", "MOTOR 1 F 100", "ACK MOTOR 1 F 100", 0, []target{{1, 100, true}}},
		{"motor 2 reverse", "motor 2 r 255", "ACK MOTOR 2 R 255", 0, []target{{2, 255, false}}},
		{"motor clamps", "MOTOR 2 F 999", "ACK MOTOR 2 F 255", 0, []target{{2, 255, true}}},
		{"motor 3", "MOTOR 3 F 100", ReplyInvalidMotor, 0, nil},
		{"motor 0", "MOTOR 0 F 100", ReplyInvalidMotor, 0, nil},
		{"motor garbage id", "MOTOR x F 100", ReplyInvalidMotor, 0, nil},
		{"motor huge id", "MOTOR 4294967297 F 100", ReplyInvalidMotor, 0, nil},
		{"double space makes empty token", "ALL F  100", ReplyUnknownCommand, 0, nil},
		{"empty direction token", "MOTOR 1  100", "ACK MOTOR 1 R 100", 0, []target{{1, 100, false}}},
		{"too few tokens", "ALL F", ReplyUnknownCommand, 0, nil},
		{"too many tokens", "MOTOR 1 F 100 2", ReplyUnknownCommand, 0, nil},
		{"motor with three tokens", "MOTOR 1 F", ReplyUnknownCommand, 0, nil},
		{"unknown", "JUMP", ReplyUnknownCommand, 0, nil},
		{"stop with args", "STOP NOW", ReplyUnknownCommand, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			p := NewProcessor(ctrl)

			reply, ok := p.ProcessLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.reply, reply)
			assert.Equal(t, tt.stops, ctrl.stops)
			assert.Equal(t, tt.targets, ctrl.targets)
		})
	}
}

func TestProcessLine_AllRejected(t *testing.T) {
	ctrl := &fakeController{reject: motor.Motor1}
	p := NewProcessor(ctrl)

	reply, ok := p.ProcessLine("ALL F 100")
	require.True(t, ok)
	assert.Equal(t, "ERR ALL invalid motor", reply)
	// motor 2 still follows the command
	assert.Equal(t, []target{{2, 100, true}}, ctrl.targets)
}

func TestProcessLine_Blank(t *testing.T) {
	for _, line := range []string{"", "   ", "\t", "\r"} {
		ctrl := &fakeController{}
		reply, ok := NewProcessor(ctrl).ProcessLine(line)
		assert.False(t, ok, "%q", line)
		assert.Empty(t, reply)
		assert.Zero(t, ctrl.stops)
		assert.Empty(t, ctrl.targets)
	}
}

func TestProcessLine_RealController(t *testing.T) {
	out := &nopOutput{}
	ctrl := motor.New(motor.DefaultConfig(), out)
	require.NoError(t, ctrl.Init())
	p := NewProcessor(ctrl)

	reply, _ := p.ProcessLine("MOTOR 3 F 100")
	assert.Equal(t, ReplyInvalidMotor, reply)
	assert.True(t, ctrl.Idle())

	reply, _ = p.ProcessLine("ALL F 255")
	assert.Equal(t, "ACK ALL F 255", reply)
	for _, s := range ctrl.States() {
		assert.Equal(t, ctrl.MaxPWM(), s.TargetPWM)
	}

	reply, _ = p.ProcessLine("stop")
	assert.Equal(t, ReplyStop, reply)
	for _, s := range ctrl.States() {
		assert.Zero(t, s.TargetPWM)
	}
}

type nopOutput struct{}

func (nopOutput) WritePWM(motor.Motor, uint16) error      { return nil }
func (nopOutput) WriteDirection(motor.Motor, bool) error { return nil }

func TestAtoi(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"0", 0},
		{"42", 42},
		{"  7", 7},
		{"+5", 5},
		{"-5", -5},
		{"12abc", 12},
		{"1.9", 1},
		{"-", 0},
		{"99999999999", 1<<31 - 1},
		{"-99999999999", -(1 << 31)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, atoi(tt.in), "%q", tt.in)
	}
}
