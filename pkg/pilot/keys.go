package pilot

import (
	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/protocol"
)

// Keys understood by Driver.Key.
const (
	KeyUp      = "up"
	KeyDown    = "down"
	KeyLeft    = "left"
	KeyRight   = "right"
	KeySpace   = " "
	KeyFaster  = "+"
	KeyFaster2 = "="
	KeySlower  = "-"
	KeyPing    = "p"
	KeyQuit    = "q"
)

const (
	DefaultSpeed     = 150
	DefaultSpeedStep = 10
)

// Driver maps keys to commands and holds the selected speed.
type Driver struct {
	speed int
	step  int
}

// NewDriver creates a driver. Zero values select the defaults.
func NewDriver(speed, step int) *Driver {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	if step <= 0 {
		step = DefaultSpeedStep
	}
	d := &Driver{step: step}
	d.SetSpeed(speed)
	return d
}

// Speed returns the selected speed.
func (d *Driver) Speed() int {
	return d.speed
}

// SetSpeed selects a speed, clamped to 0..255.
func (d *Driver) SetSpeed(speed int) {
	d.speed = min(max(speed, 0), 255)
}

// Key returns the commands to send for a key press. quit is true for the
// quit key. Speed keys change the speed and send nothing.
func (d *Driver) Key(key string) (cmds []string, quit bool) {
	spd := uint8(d.speed)

	switch key {
	case KeyUp:
		return []string{protocol.AllCommand(true, spd)}, false
	case KeyDown:
		return []string{protocol.AllCommand(false, spd)}, false
	case KeyLeft:
		return []string{
			protocol.MotorCommand(motor.Motor1, false, spd),
			protocol.MotorCommand(motor.Motor2, true, spd),
		}, false
	case KeyRight:
		return []string{
			protocol.MotorCommand(motor.Motor1, true, spd),
			protocol.MotorCommand(motor.Motor2, false, spd),
		}, false
	case KeySpace, "space":
		return []string{protocol.CmdStop}, false
	case KeyFaster, KeyFaster2:
		d.SetSpeed(d.speed + d.step)
	case KeySlower:
		d.SetSpeed(d.speed - d.step)
	case KeyPing:
		return []string{protocol.CmdPing}, false
	case KeyQuit:
		return nil, true
	}
	return nil, false
}
