//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/protocol"
)

var uart = machine.UART0

// pwm is the subset of the TinyGo PWM peripheral the bridge needs.
type pwm interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// bridge drives two H-bridge channels.
type bridge struct {
	timer    pwm
	channels [motor.Count]uint8
	in1      [motor.Count]machine.Pin
	in2      [motor.Count]machine.Pin
	maxPWM   uint32
}

func newBridge(timer pwm, maxPWM uint16) (*bridge, error) {
	b := &bridge{
		timer:  timer,
		in1:    [motor.Count]machine.Pin{PIN_M1_IN1, PIN_M2_IN1},
		in2:    [motor.Count]machine.Pin{PIN_M1_IN2, PIN_M2_IN2},
		maxPWM: uint32(maxPWM),
	}
	if err := timer.Configure(machine.PWMConfig{Period: PWM_PERIOD_NS}); err != nil {
		return nil, err
	}
	for i, pin := range [motor.Count]machine.Pin{PIN_M1_PWM, PIN_M2_PWM} {
		ch, err := timer.Channel(pin)
		if err != nil {
			return nil, err
		}
		b.channels[i] = ch
		b.in1[i].Configure(machine.PinConfig{Mode: machine.PinOutput})
		b.in2[i].Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	return b, nil
}

func (b *bridge) WritePWM(m motor.Motor, duty uint16) error {
	if !m.Valid() {
		return motor.ErrInvalidMotor
	}
	// scale 0..maxPWM onto the timer's own range
	b.timer.Set(b.channels[m-1], uint32(duty)*b.timer.Top()/b.maxPWM)
	return nil
}

func (b *bridge) WriteDirection(m motor.Motor, forward bool) error {
	if !m.Valid() {
		return motor.ErrInvalidMotor
	}
	b.in1[m-1].Set(forward)
	b.in2[m-1].Set(!forward)
	return nil
}

func main() {
	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	cfg := motor.DefaultConfig()
	out, err := newBridge(PWM_TIMER, cfg.MaxPWM())
	if err != nil {
		fail("ERR PWM " + err.Error())
	}

	ctrl := motor.New(cfg, out)
	if err := ctrl.Init(); err != nil {
		fail("ERR INIT " + err.Error())
	}

	proc := protocol.NewProcessor(ctrl)
	lines := protocol.NewLineBuffer(protocol.DefaultMaxLineLength)

	for {
		for uart.Buffered() > 0 {
			c, err := uart.ReadByte()
			if err != nil {
				break
			}
			line, ok := lines.Feed(c)
			if !ok {
				continue
			}
			if reply, ok := proc.ProcessLine(line); ok {
				println(reply)
			}
		}

		if _, err := ctrl.Tick(); err != nil {
			println("ERR", err.Error())
		}

		time.Sleep(LOOP_SLEEP_US * time.Microsecond)
	}
}

// fail reports a fatal error forever.
func fail(msg string) {
	for {
		println(msg)
		time.Sleep(time.Second)
	}
}
