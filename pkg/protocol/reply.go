package protocol

import (
	"strconv"
	"strings"

	"github.com/itohio/autito/pkg/motor"
)

// Commands without arguments.
const (
	CmdStop = "STOP"
	CmdPing = "PING"
)

// AllCommand builds a command setting both motors.
func AllCommand(forward bool, speed uint8) string {
	return "ALL " + directionString(forward) + " " + strconv.Itoa(int(speed))
}

// MotorCommand builds a command setting a single motor.
func MotorCommand(m motor.Motor, forward bool, speed uint8) string {
	return "MOTOR " + strconv.Itoa(int(m)) + " " + directionString(forward) + " " + strconv.Itoa(int(speed))
}

// ReplyKind classifies a line received from the car.
type ReplyKind int

const (
	ReplyUnknown ReplyKind = iota
	ReplyAck
	ReplyPing
	ReplyError
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyAck:
		return "ack"
	case ReplyPing:
		return "pong"
	case ReplyError:
		return "error"
	default:
		return "unknown"
	}
}

// Reply is a parsed line from the car.
type Reply struct {
	Kind ReplyKind
	// Command is the acknowledged command, e.g. "ALL F 150", or the error
	// reason for ReplyError.
	Command string
	Raw     string
}

// ParseReply classifies a reply line. Lines the car prints for other
// reasons come back as ReplyUnknown.
func ParseReply(line string) Reply {
	line = strings.TrimSpace(line)
	r := Reply{Raw: line}

	switch {
	case line == ReplyPong:
		r.Kind = ReplyPing
	case strings.HasPrefix(line, "ACK "):
		r.Kind = ReplyAck
		r.Command = line[len("ACK "):]
	case strings.HasPrefix(line, "ERR "):
		r.Kind = ReplyError
		r.Command = line[len("ERR "):]
	}
	return r
}
