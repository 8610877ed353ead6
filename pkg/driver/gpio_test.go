package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/itohio/autito/pkg/motor"
)

func testChannels() ([]Channel, []*gpiotest.Pin) {
	pins := []*gpiotest.Pin{
		{N: "PWM1"}, {N: "IN1A"}, {N: "IN2A"},
		{N: "PWM2"}, {N: "IN1B"}, {N: "IN2B"},
	}
	return []Channel{
		{PWM: pins[0], IN1: pins[1], IN2: pins[2]},
		{PWM: pins[3], IN1: pins[4], IN2: pins[5]},
	}, pins
}

func TestNewGPIO_ChannelCount(t *testing.T) {
	channels, _ := testChannels()
	_, err := NewGPIO(channels[:1], 1023, 0)
	assert.Error(t, err)
}

func TestGPIO_WritePWM(t *testing.T) {
	channels, pins := testChannels()
	g, err := NewGPIO(channels, 1023, 0)
	require.NoError(t, err)

	require.NoError(t, g.WritePWM(motor.Motor1, 1023))
	assert.Equal(t, gpio.DutyMax, pins[0].D)
	assert.Equal(t, DefaultFrequency, pins[0].F)

	require.NoError(t, g.WritePWM(motor.Motor2, 0))
	assert.Equal(t, gpio.Duty(0), pins[3].D)

	require.NoError(t, g.WritePWM(motor.Motor2, 5000))
	assert.Equal(t, gpio.DutyMax, pins[3].D, "duty is clamped")

	assert.ErrorIs(t, g.WritePWM(3, 10), motor.ErrInvalidMotor)
}

func TestGPIO_WriteDirection(t *testing.T) {
	channels, pins := testChannels()
	g, err := NewGPIO(channels, 1023, 1000*physic.Hertz)
	require.NoError(t, err)

	require.NoError(t, g.WriteDirection(motor.Motor1, true))
	assert.Equal(t, gpio.High, pins[1].L)
	assert.Equal(t, gpio.Low, pins[2].L)

	require.NoError(t, g.WriteDirection(motor.Motor2, false))
	assert.Equal(t, gpio.Low, pins[4].L)
	assert.Equal(t, gpio.High, pins[5].L)
}

func TestGPIO_Close(t *testing.T) {
	channels, pins := testChannels()
	g, err := NewGPIO(channels, 1023, 0)
	require.NoError(t, err)
	require.NoError(t, g.WriteDirection(motor.Motor1, true))

	require.NoError(t, g.Close())
	for _, p := range pins {
		assert.Equal(t, gpio.Low, p.L, p.N)
	}
}
