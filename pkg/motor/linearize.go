package motor

import (
	"time"

	"github.com/chewxy/math32"
)

const (
	// DefaultRampStep is the largest PWM change applied per tick.
	DefaultRampStep = 16
	// DefaultInterval is the minimum time between two ramp ticks.
	DefaultInterval = 20 * time.Millisecond
	// DefaultGamma gives a square-root response: finer control at low speeds.
	DefaultGamma = 0.5
	// DefaultResolutionBits is the PWM resolution (10 bits = 0..1023).
	DefaultResolutionBits = 10
)

// Config holds the ramp and linearization parameters. It is fixed after the
// controller is created.
type Config struct {
	RampStep       uint16
	Interval       time.Duration
	Gamma          float32
	ResolutionBits uint8
}

// DefaultConfig returns the parameters the car ships with.
func DefaultConfig() Config {
	return Config{
		RampStep:       DefaultRampStep,
		Interval:       DefaultInterval,
		Gamma:          DefaultGamma,
		ResolutionBits: DefaultResolutionBits,
	}
}

// MaxPWM returns the largest duty value for the configured resolution.
func (c Config) MaxPWM() uint16 {
	bits := c.ResolutionBits
	if bits == 0 || bits > 16 {
		bits = 16
	}
	return uint16(uint32(1)<<bits - 1)
}

// Linearize maps an 8-bit speed to a PWM duty value through the gamma curve.
// 0 maps to 0 and 255 maps to exactly MaxPWM.
func (c Config) Linearize(speed uint8) uint16 {
	maxPWM := c.MaxPWM()
	if speed == 0 {
		return 0
	}
	if speed == 255 {
		return maxPWM
	}

	norm := float32(speed) / 255
	out := math32.Pow(norm, c.Gamma)
	pwm := math32.Floor(out*float32(maxPWM) + 0.5)
	if pwm >= float32(maxPWM) {
		return maxPWM
	}
	return uint16(pwm)
}
