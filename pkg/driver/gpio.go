package driver

import (
	"fmt"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/itohio/autito/pkg/config"
	"github.com/itohio/autito/pkg/motor"
)

// DefaultFrequency is the PWM carrier frequency.
const DefaultFrequency = 20 * physic.KiloHertz

// Channel is one H-bridge channel: a PWM enable pin and two direction
// inputs driven in opposition.
type Channel struct {
	PWM gpio.PinOut
	IN1 gpio.PinOut
	IN2 gpio.PinOut
}

// GPIO drives the H-bridge through periph.io pins.
type GPIO struct {
	channels [motor.Count]Channel
	maxPWM   uint16
	freq     physic.Frequency
}

var _ motor.Output = (*GPIO)(nil)

// NewGPIO uses already resolved pins, one channel per motor.
func NewGPIO(channels []Channel, maxPWM uint16, freq physic.Frequency) (*GPIO, error) {
	if len(channels) != motor.Count {
		return nil, fmt.Errorf("expected %d motor channels, got %d", motor.Count, len(channels))
	}
	if maxPWM == 0 {
		maxPWM = motor.DefaultConfig().MaxPWM()
	}
	if freq == 0 {
		freq = DefaultFrequency
	}

	g := &GPIO{maxPWM: maxPWM, freq: freq}
	copy(g.channels[:], channels)
	return g, nil
}

// OpenGPIO initializes the host drivers and looks the pins up by name.
func OpenGPIO(pins []config.MotorPins, maxPWM uint16, hz int) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host: %w", err)
	}

	channels := make([]Channel, 0, len(pins))
	for i, p := range pins {
		var ch Channel
		var err error
		if ch.PWM, err = lookup(p.PWM); err != nil {
			return nil, fmt.Errorf("motor %d: %w", i+1, err)
		}
		if ch.IN1, err = lookup(p.IN1); err != nil {
			return nil, fmt.Errorf("motor %d: %w", i+1, err)
		}
		if ch.IN2, err = lookup(p.IN2); err != nil {
			return nil, fmt.Errorf("motor %d: %w", i+1, err)
		}
		channels = append(channels, ch)
	}

	return NewGPIO(channels, maxPWM, physic.Frequency(hz)*physic.Hertz)
}

func lookup(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

// WritePWM scales duty from 0..maxPWM to the periph duty range.
func (g *GPIO) WritePWM(m motor.Motor, duty uint16) error {
	if !m.Valid() {
		return motor.ErrInvalidMotor
	}
	if duty > g.maxPWM {
		duty = g.maxPWM
	}
	d := gpio.Duty(uint64(duty) * uint64(gpio.DutyMax) / uint64(g.maxPWM))
	if err := g.channels[m-1].PWM.PWM(d, g.freq); err != nil {
		return fmt.Errorf("motor %d pwm: %w", m, err)
	}
	return nil
}

// WriteDirection sets IN1 high and IN2 low for forward, the opposite for
// reverse.
func (g *GPIO) WriteDirection(m motor.Motor, forward bool) error {
	if !m.Valid() {
		return motor.ErrInvalidMotor
	}
	ch := g.channels[m-1]
	var err error
	err = multierr.Append(err, ch.IN1.Out(gpio.Level(forward)))
	err = multierr.Append(err, ch.IN2.Out(gpio.Level(!forward)))
	if err != nil {
		return fmt.Errorf("motor %d direction: %w", m, err)
	}
	return nil
}

// Close stops both channels and releases the pins.
func (g *GPIO) Close() error {
	var err error
	for _, ch := range g.channels {
		err = multierr.Append(err, ch.PWM.Out(gpio.Low))
		err = multierr.Append(err, ch.IN1.Out(gpio.Low))
		err = multierr.Append(err, ch.IN2.Out(gpio.Low))
		err = multierr.Append(err, ch.PWM.Halt())
	}
	return err
}
