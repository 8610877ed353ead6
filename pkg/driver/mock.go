// Package driver provides motor.Output implementations.
package driver

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/autito/pkg/config"
	"github.com/itohio/autito/pkg/motor"
)

// Write is a single recorded call on the mock.
type Write struct {
	At        time.Time
	Motor     motor.Motor
	Direction bool // true for WriteDirection, false for WritePWM
	Forward   bool
	Duty      uint16
}

// Mock simulates the H-bridge and the wheels for testing and development.
// Every write is recorded and the wheel speed follows the applied duty with
// a first order lag.
type Mock struct {
	cfg    config.MockConfig
	maxPWM uint16
	now    func() time.Time

	mu         sync.RWMutex
	duty       [motor.Count]uint16
	forward    [motor.Count]bool
	rpm        [motor.Count]float64
	updated    time.Time
	writes     []Write
	violations int
}

var _ motor.Output = (*Mock)(nil)

// NewMock creates a simulated output for duties in 0..maxPWM.
func NewMock(cfg *config.MockConfig, maxPWM uint16) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			MaxRPM:    300,
			TimeConst: 150 * time.Millisecond,
		}
	}
	if maxPWM == 0 {
		maxPWM = motor.DefaultConfig().MaxPWM()
	}

	m := &Mock{
		cfg:    *cfg,
		maxPWM: maxPWM,
		now:    time.Now,
	}
	m.updated = m.now()
	return m
}

// WritePWM records a duty write.
func (m *Mock) WritePWM(id motor.Motor, duty uint16) error {
	if !id.Valid() {
		return motor.ErrInvalidMotor
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.simulate(now)
	if duty > m.maxPWM {
		duty = m.maxPWM
	}
	m.duty[id-1] = duty
	m.writes = append(m.writes, Write{At: now, Motor: id, Duty: duty})
	return nil
}

// WriteDirection records a direction write. Switching direction while the
// channel is driven is counted as a violation.
func (m *Mock) WriteDirection(id motor.Motor, forward bool) error {
	if !id.Valid() {
		return motor.ErrInvalidMotor
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.simulate(now)
	if forward != m.forward[id-1] && m.duty[id-1] != 0 {
		m.violations++
	}
	m.forward[id-1] = forward
	m.writes = append(m.writes, Write{At: now, Motor: id, Direction: true, Forward: forward})
	return nil
}

// Duty returns the applied duty of a motor.
func (m *Mock) Duty(id motor.Motor) uint16 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duty[id-1]
}

// Forward returns the applied direction of a motor.
func (m *Mock) Forward(id motor.Motor) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forward[id-1]
}

// RPM returns the simulated signed wheel speed.
func (m *Mock) RPM(id motor.Motor) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulate(m.now())
	return m.rpm[id-1]
}

// Writes returns a copy of the recorded writes.
func (m *Mock) Writes() []Write {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// Violations returns how many times a direction changed under load.
func (m *Mock) Violations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.violations
}

// Reset forgets the recorded writes.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
	m.violations = 0
}

// simulate advances the wheel model to now. Caller holds the lock.
func (m *Mock) simulate(now time.Time) {
	dt := now.Sub(m.updated).Seconds()
	m.updated = now
	if dt <= 0 {
		return
	}

	alpha := 1.0
	if tau := m.cfg.TimeConst.Seconds(); tau > 0 {
		alpha = 1 - math.Exp(-dt/tau)
	}
	for i := range m.rpm {
		target := float64(m.duty[i]) / float64(m.maxPWM) * m.cfg.MaxRPM
		if !m.forward[i] {
			target = -target
		}
		m.rpm[i] += alpha * (target - m.rpm[i])
	}
}
