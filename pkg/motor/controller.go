// Package motor drives two DC motors through a PWM ramp.
//
// Targets are requested with SetTarget and reached gradually by Tick, which
// moves the applied duty by at most RampStep per interval. A direction
// reversal is never applied while a motor is spinning: the motor is ramped
// to zero first, the direction pins are switched at zero duty, and the ramp
// then continues toward the requested speed.
package motor

import (
	"errors"
	"time"
)

// Motor identifies one of the two motors. Valid values are Motor1 and Motor2.
type Motor uint8

const (
	Motor1 Motor = 1
	Motor2 Motor = 2
)

// Count is the number of motors driven by a Controller.
const Count = 2

// ErrInvalidMotor is returned for a motor index other than 1 or 2.
var ErrInvalidMotor = errors.New("invalid motor")

// Valid reports whether m addresses a motor.
func (m Motor) Valid() bool {
	return m == Motor1 || m == Motor2
}

// Output is the peripheral the controller writes to.
type Output interface {
	// WritePWM applies a duty value in 0..MaxPWM.
	WritePWM(m Motor, duty uint16) error
	// WriteDirection sets the H-bridge direction pins.
	WriteDirection(m Motor, forward bool) error
}

// Phase is the ramp state of a single motor.
type Phase uint8

const (
	Stopped Phase = iota
	Ramping
	Reversing
	Running
)

func (p Phase) String() string {
	switch p {
	case Stopped:
		return "stopped"
	case Ramping:
		return "ramping"
	case Reversing:
		return "reversing"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// MotorState is the logical and physical state of one motor.
type MotorState struct {
	CurrentPWM       uint16
	TargetPWM        uint16
	DesiredTargetPWM uint16 // resumed once a pending reversal completes
	Forward          bool
	PendingReversal  bool
	PendingForward   bool
}

// Phase classifies the state.
func (s MotorState) Phase() Phase {
	switch {
	case s.PendingReversal:
		return Reversing
	case s.CurrentPWM != s.TargetPWM:
		return Ramping
	case s.CurrentPWM == 0:
		return Stopped
	default:
		return Running
	}
}

// Controller owns the ramp state of both motors. It is not safe for
// concurrent use: a single control loop calls SetTarget, StopAll and Tick.
type Controller struct {
	cfg    Config
	out    Output
	now    func() time.Time
	maxPWM uint16

	motors      [Count]MotorState
	applied     [Count]bool // direction last written to the pins
	known       [Count]bool // applied is valid
	lastTick    time.Time
	initialized bool
}

// New creates a controller writing to out. Init must be called before the
// first Tick.
func New(cfg Config, out Output) *Controller {
	if cfg.RampStep == 0 {
		cfg.RampStep = DefaultRampStep
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ResolutionBits == 0 {
		cfg.ResolutionBits = DefaultResolutionBits
	}

	return &Controller{
		cfg:    cfg,
		out:    out,
		now:    time.Now,
		maxPWM: cfg.MaxPWM(),
	}
}

// SetClock replaces the time source used to throttle Tick. Simulations use it
// to run the ramp faster than real time.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Config returns the ramp parameters in use.
func (c *Controller) Config() Config {
	return c.cfg
}

// MaxPWM returns the largest duty the controller will apply.
func (c *Controller) MaxPWM() uint16 {
	return c.maxPWM
}

// Init resets both motors to stopped/forward and writes zero duty and the
// forward direction immediately.
func (c *Controller) Init() error {
	var firstErr error
	for i := range c.motors {
		m := Motor(i + 1)
		c.motors[i] = MotorState{Forward: true, PendingForward: true}
		c.known[i] = false
		if err := c.apply(m, 0, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.lastTick = c.now()
	c.initialized = true
	return firstErr
}

// SetTarget requests a new speed (0..255) and direction for one motor.
func (c *Controller) SetTarget(m Motor, speed uint8, forward bool) error {
	if !m.Valid() {
		return ErrInvalidMotor
	}
	s := &c.motors[m-1]
	pwm := c.cfg.Linearize(speed)

	s.DesiredTargetPWM = pwm
	switch {
	case pwm == 0:
		s.PendingReversal = false
		s.TargetPWM = 0
	case forward == s.Forward:
		s.PendingReversal = false
		s.TargetPWM = pwm
	default:
		// ramp to zero first, Tick switches direction there
		s.PendingReversal = true
		s.PendingForward = forward
		s.TargetPWM = 0
	}
	return nil
}

// StopAll ramps both motors to zero and drops pending reversals. The applied
// duty is left to Tick so that even a stop decelerates along the ramp.
func (c *Controller) StopAll() {
	for i := range c.motors {
		s := &c.motors[i]
		s.TargetPWM = 0
		s.DesiredTargetPWM = 0
		s.PendingReversal = false
	}
}

// Tick advances both motors one ramp step. Calls closer together than the
// configured interval do nothing and return false. The first output error is
// returned; the remaining motors are still updated.
func (c *Controller) Tick() (bool, error) {
	now := c.now()
	if c.initialized && now.Sub(c.lastTick) < c.cfg.Interval {
		return false, nil
	}
	c.lastTick = now
	c.initialized = true

	var firstErr error
	for i := range c.motors {
		if err := c.step(Motor(i + 1)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return true, firstErr
}

// State returns a copy of one motor's state.
func (c *Controller) State(m Motor) (MotorState, error) {
	if !m.Valid() {
		return MotorState{}, ErrInvalidMotor
	}
	return c.motors[m-1], nil
}

// States returns a copy of both motor states, indexed by motor-1.
func (c *Controller) States() [Count]MotorState {
	return c.motors
}

// Idle reports whether both motors are stopped with nothing pending.
func (c *Controller) Idle() bool {
	for _, s := range c.motors {
		if s.Phase() != Stopped {
			return false
		}
	}
	return true
}

func (c *Controller) step(m Motor) error {
	s := &c.motors[m-1]

	// never leave standstill until the pins follow s.Forward
	if s.CurrentPWM == 0 && s.TargetPWM > 0 && !c.directionApplied(m, s.Forward) {
		return c.apply(m, 0, s.Forward)
	}

	var firstErr error
	if s.CurrentPWM != s.TargetPWM {
		s.CurrentPWM = approach(s.CurrentPWM, s.TargetPWM, c.cfg.RampStep)
		firstErr = c.apply(m, s.CurrentPWM, s.Forward)
	}

	if s.CurrentPWM == 0 && s.PendingReversal {
		// the reversal stays pending until the direction write succeeds
		if err := c.apply(m, 0, s.PendingForward); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return firstErr
		}
		s.Forward = s.PendingForward
		s.PendingReversal = false
		s.TargetPWM = s.DesiredTargetPWM
	}
	return firstErr
}

func (c *Controller) directionApplied(m Motor, forward bool) bool {
	return c.known[m-1] && c.applied[m-1] == forward
}

// apply writes duty and direction. The direction pins are only touched when
// the duty is zero or the direction is unchanged. A failed direction write
// leaves the pins unknown.
func (c *Controller) apply(m Motor, duty uint16, forward bool) error {
	var firstErr error
	if duty == 0 || c.directionApplied(m, forward) {
		if err := c.out.WriteDirection(m, forward); err != nil {
			firstErr = err
			c.known[m-1] = false
		} else {
			c.applied[m-1] = forward
			c.known[m-1] = true
		}
	}
	if err := c.out.WritePWM(m, duty); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// approach moves cur toward target by at most step without overshooting.
func approach(cur, target, step uint16) uint16 {
	if cur < target {
		if target-cur <= step {
			return target
		}
		return cur + step
	}
	if cur-target <= step {
		return target
	}
	return cur - step
}
