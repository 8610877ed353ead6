// Package protocol implements the line-oriented command protocol spoken
// between the pilot and the car.
//
// Commands are single ASCII lines with case-insensitive keywords:
//
//	STOP
//	PING
//	ALL <F|R> <0-255>
//	MOTOR <1|2> <F|R> <0-255>
//
// Every non-empty line is answered with exactly one reply line.
package protocol

import (
	"strconv"
	"strings"

	"github.com/itohio/autito/pkg/motor"
)

// Replies sent by the car.
const (
	ReplyStop           = "ACK STOP"
	ReplyPong           = "PONG"
	ReplyInvalidMotor   = "ERR MOTOR numero invalido"
	ReplyUnknownCommand = "ERR comando desconocido"
)

// MotorController is the part of motor.Controller the processor drives.
type MotorController interface {
	SetTarget(m motor.Motor, speed uint8, forward bool) error
	StopAll()
}

var _ MotorController = (*motor.Controller)(nil)

// Processor turns command lines into controller calls.
type Processor struct {
	ctrl MotorController
}

// NewProcessor returns a processor driving ctrl.
func NewProcessor(ctrl MotorController) *Processor {
	return &Processor{ctrl: ctrl}
}

// ProcessLine executes one command line and returns the reply. ok is false
// for a blank line, which is ignored without a reply.
func (p *Processor) ProcessLine(line string) (reply string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	if strings.EqualFold(line, CmdStop) {
		p.ctrl.StopAll()
		return ReplyStop, true
	}
	if strings.EqualFold(line, CmdPing) {
		return ReplyPong, true
	}

	// single spaces only, "ALL F  100" has four tokens
	parts := strings.Split(line, " ")

	switch {
	case len(parts) == 3 && strings.EqualFold(parts[0], "ALL"):
		fwd := parseDirection(parts[1])
		spd := parseSpeed(parts[2])
		// both motors get the command even if one is rejected
		err := p.ctrl.SetTarget(motor.Motor1, spd, fwd)
		if err2 := p.ctrl.SetTarget(motor.Motor2, spd, fwd); err == nil {
			err = err2
		}
		if err != nil {
			return "ERR ALL " + err.Error(), true
		}
		return "ACK ALL " + directionString(fwd) + " " + strconv.Itoa(int(spd)), true

	case len(parts) == 4 && strings.EqualFold(parts[0], "MOTOR"):
		id := atoi(parts[1])
		fwd := parseDirection(parts[2])
		spd := parseSpeed(parts[3])
		if id != int(motor.Motor1) && id != int(motor.Motor2) {
			return ReplyInvalidMotor, true
		}
		if err := p.ctrl.SetTarget(motor.Motor(id), spd, fwd); err != nil {
			return ReplyInvalidMotor, true
		}
		return "ACK MOTOR " + strconv.Itoa(id) + " " + directionString(fwd) + " " + strconv.Itoa(int(spd)), true
	}

	return ReplyUnknownCommand, true
}

func parseDirection(s string) bool {
	return strings.EqualFold(s, "F")
}

func directionString(forward bool) string {
	if forward {
		return "F"
	}
	return "R"
}

func parseSpeed(s string) uint8 {
	n := atoi(s)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// atoi parses an optional sign and the leading decimal digits of s. Anything
// unparseable yields 0 and trailing garbage is ignored, so "12abc" is 12.
// The result saturates at the int32 range.
func atoi(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	const limit = 1 << 31
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n < limit {
			n = n*10 + int(s[i]-'0')
		}
	}
	if n > limit {
		n = limit
	}
	if neg {
		return -n
	}
	if n == limit {
		n--
	}
	return n
}
