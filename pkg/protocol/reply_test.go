package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/autito/pkg/motor"
)

func TestCommandBuilders(t *testing.T) {
	assert.Equal(t, "ALL F 150", AllCommand(true, 150))
	assert.Equal(t, "ALL R 0", AllCommand(false, 0))
	assert.Equal(t, "MOTOR 1 R 255", MotorCommand(motor.Motor1, false, 255))
	assert.Equal(t, "MOTOR 2 F 10", MotorCommand(motor.Motor2, true, 10))
}

func TestBuildersRoundTripThroughProcessor(t *testing.T) {
	p := NewProcessor(&fakeController{})

	for _, cmd := range []string{AllCommand(true, 150), MotorCommand(motor.Motor2, false, 42), CmdStop, CmdPing} {
		reply, ok := p.ProcessLine(cmd)
		assert.True(t, ok)
		r := ParseReply(reply)
		switch cmd {
		case CmdPing:
			assert.Equal(t, ReplyPing, r.Kind)
		default:
			assert.Equal(t, ReplyAck, r.Kind)
			assert.Equal(t, cmd, r.Command)
		}
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		line    string
		kind    ReplyKind
		command string
	}{
		{"ACK STOP", ReplyAck, "STOP"},
		{"ACK MOTOR 1 F 100\r", ReplyAck, "MOTOR 1 F 100"},
		{"PONG", ReplyPing, ""},
		{"ERR comando desconocido", ReplyError, "comando desconocido"},
		{"WiFi: connecting", ReplyUnknown, ""},
		{"", ReplyUnknown, ""},
	}

	for _, tt := range tests {
		r := ParseReply(tt.line)
		assert.Equal(t, tt.kind, r.Kind, tt.line)
		assert.Equal(t, tt.command, r.Command, tt.line)
	}
	assert.Equal(t, "error", ReplyError.String())
}
