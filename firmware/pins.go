//go:build tinygo

package main

import "machine"

const (
	// H-bridge pins. PWM pins must share PWM_TIMER.
	PIN_M1_PWM = machine.D2
	PIN_M1_IN1 = machine.D3
	PIN_M1_IN2 = machine.D4
	PIN_M2_PWM = machine.D8
	PIN_M2_IN1 = machine.D9
	PIN_M2_IN2 = machine.D10

	// 20kHz keeps the bridge out of the audible range
	PWM_PERIOD_NS = 1e9 / 20000

	// Command line from the Wi-Fi bridge
	UART_BAUD_RATE = 115200

	// Idle sleep of the main loop
	LOOP_SLEEP_US = 200
)

var PWM_TIMER = machine.TCC0
