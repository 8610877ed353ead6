package pilot

import (
	"strconv"
	"strings"

	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/protocol"
)

// Speeds holds the signed speed last acknowledged by the car, per motor.
// Reverse is negative.
type Speeds [motor.Count]int

// Apply updates s from an acknowledgment and reports whether it changed
// anything.
func (s *Speeds) Apply(r protocol.Reply) bool {
	if r.Kind != protocol.ReplyAck {
		return false
	}

	f := strings.Fields(r.Command)
	switch {
	case len(f) == 1 && strings.EqualFold(f[0], protocol.CmdStop):
		*s = Speeds{}
		return true
	case len(f) == 3 && f[0] == "ALL":
		v, ok := signed(f[1], f[2])
		if !ok {
			return false
		}
		s[0], s[1] = v, v
		return true
	case len(f) == 4 && f[0] == "MOTOR":
		id, err := strconv.Atoi(f[1])
		if err != nil || !motor.Motor(id).Valid() {
			return false
		}
		v, ok := signed(f[2], f[3])
		if !ok {
			return false
		}
		s[id-1] = v
		return true
	}
	return false
}

func signed(dir, speed string) (int, bool) {
	v, err := strconv.Atoi(speed)
	if err != nil {
		return 0, false
	}
	if dir == "R" {
		v = -v
	}
	return v, true
}
