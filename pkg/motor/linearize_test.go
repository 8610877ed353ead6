package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_MaxPWM(t *testing.T) {
	tests := []struct {
		bits uint8
		want uint16
	}{
		{8, 255},
		{10, 1023},
		{12, 4095},
		{16, 65535},
		{0, 65535},
	}

	for _, tt := range tests {
		cfg := Config{ResolutionBits: tt.bits}
		assert.Equal(t, tt.want, cfg.MaxPWM(), "bits=%d", tt.bits)
	}
}

func TestLinearize_Endpoints(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, uint16(0), cfg.Linearize(0))
	assert.Equal(t, uint16(1023), cfg.Linearize(255))
}

func TestLinearize_KnownValues(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		speed uint8
		want  uint16
	}{
		{1, 64},    // sqrt(1/255) * 1023 = 64.06
		{64, 513},  // sqrt(64/255) * 1023 = 512.5
		{128, 725}, // sqrt(128/255) * 1023 = 724.8
		{254, 1021},
	}

	for _, tt := range tests {
		assert.InDelta(t, float64(tt.want), float64(cfg.Linearize(tt.speed)), 1, "speed=%d", tt.speed)
	}
}

func TestLinearize_MonotonicAndBounded(t *testing.T) {
	for _, bits := range []uint8{8, 10, 12} {
		cfg := DefaultConfig()
		cfg.ResolutionBits = bits
		maxPWM := cfg.MaxPWM()

		prev := uint16(0)
		for in := 0; in <= 255; in++ {
			got := cfg.Linearize(uint8(in))
			assert.LessOrEqual(t, got, maxPWM, "bits=%d in=%d", bits, in)
			assert.GreaterOrEqual(t, got, prev, "bits=%d in=%d", bits, in)
			prev = got
		}
		assert.Equal(t, maxPWM, prev)
	}
}

func TestLinearize_LinearGamma(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gamma = 1
	cfg.ResolutionBits = 8

	// gamma 1 at 8 bits is the identity
	for in := 0; in <= 255; in++ {
		assert.Equal(t, uint16(in), cfg.Linearize(uint8(in)))
	}
}
