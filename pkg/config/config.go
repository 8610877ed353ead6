package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/itohio/autito/pkg/motor"
)

// Transports understood by the car.
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// Config represents the application configuration.
type Config struct {
	Link  LinkConfig  `yaml:"link"`
	Motor MotorConfig `yaml:"motor"`
	Pins  PinsConfig  `yaml:"pins"`
	Pilot PilotConfig `yaml:"pilot"`
	Mock  MockConfig  `yaml:"mock"`
}

// LinkConfig describes how the car reaches the pilot.
type LinkConfig struct {
	Transport     string        `yaml:"transport" env:"AUTITO_TRANSPORT"`
	Server        string        `yaml:"server" env:"AUTITO_SERVER"` // host:port the car dials
	SerialPort    string        `yaml:"serial_port" env:"AUTITO_SERIAL_PORT"`
	BaudRate      int           `yaml:"baud_rate"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	MaxLineLength int           `yaml:"max_line_length"`
}

// MotorConfig contains the ramp parameters.
type MotorConfig struct {
	RampStep       uint16        `yaml:"ramp_step"`
	Interval       time.Duration `yaml:"interval"`
	Gamma          float32       `yaml:"gamma"`
	ResolutionBits uint8         `yaml:"resolution_bits"`
	PWMFrequency   int           `yaml:"pwm_frequency"` // Hz
}

// PinsConfig names the GPIO pins of the H-bridge, one entry per motor.
type PinsConfig struct {
	Motors []MotorPins `yaml:"motors"`
}

// MotorPins are the pins of a single H-bridge channel.
type MotorPins struct {
	PWM string `yaml:"pwm"`
	IN1 string `yaml:"in1"`
	IN2 string `yaml:"in2"`
}

// PilotConfig configures the PC side.
type PilotConfig struct {
	Listen       string `yaml:"listen" env:"AUTITO_PILOT_LISTEN"` // TCP address the car connects to
	HTTP         string `yaml:"http" env:"AUTITO_PILOT_HTTP"`     // command relay, empty disables it
	DefaultSpeed int    `yaml:"default_speed"`
	SpeedStep    int    `yaml:"speed_step"`
	StreamPort   int    `yaml:"stream_port"`
}

// MockConfig contains simulated drivetrain parameters.
type MockConfig struct {
	MaxRPM    float64       `yaml:"max_rpm"`    // wheel speed at full duty
	TimeConst time.Duration `yaml:"time_const"` // first order lag of the wheel
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	ramp := motor.DefaultConfig()
	return &Config{
		Link: LinkConfig{
			Transport:     TransportTCP,
			Server:        "192.168.4.2:12345",
			SerialPort:    "/dev/ttyUSB0",
			BaudRate:      115200,
			RetryInterval: 3 * time.Second,
			DialTimeout:   2 * time.Second,
			MaxLineLength: 200,
		},
		Motor: MotorConfig{
			RampStep:       ramp.RampStep,
			Interval:       ramp.Interval,
			Gamma:          ramp.Gamma,
			ResolutionBits: ramp.ResolutionBits,
			PWMFrequency:   20000,
		},
		Pins: PinsConfig{
			// Raspberry Pi hardware PWM channels
			Motors: []MotorPins{
				{PWM: "GPIO12", IN1: "GPIO5", IN2: "GPIO6"},
				{PWM: "GPIO13", IN1: "GPIO20", IN2: "GPIO21"},
			},
		},
		Pilot: PilotConfig{
			Listen:       ":12345",
			HTTP:         ":8081",
			DefaultSpeed: 150,
			SpeedStep:    10,
			StreamPort:   8080,
		},
		Mock: MockConfig{
			MaxRPM:    300,
			TimeConst: 150 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. If the file doesn't exist or fields are missing, it uses
// default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// ApplyEnv overrides fields tagged with env from the environment. A nil
// environ reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var opts []env.Options
	if environ != nil {
		opts = append(opts, env.Options{Environment: environ})
	}

	if err := env.Parse(&c.Link, opts...); err != nil {
		return fmt.Errorf("failed to parse link environment: %w", err)
	}
	if err := env.Parse(&c.Pilot, opts...); err != nil {
		return fmt.Errorf("failed to parse pilot environment: %w", err)
	}
	return nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Ramp returns the motor controller parameters.
func (m MotorConfig) Ramp() motor.Config {
	return motor.Config{
		RampStep:       m.RampStep,
		Interval:       m.Interval,
		Gamma:          m.Gamma,
		ResolutionBits: m.ResolutionBits,
	}
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Link.Transport == "" {
		c.Link.Transport = def.Link.Transport
	}
	if c.Link.BaudRate == 0 {
		c.Link.BaudRate = def.Link.BaudRate
	}
	if c.Link.RetryInterval == 0 {
		c.Link.RetryInterval = def.Link.RetryInterval
	}
	if c.Link.DialTimeout == 0 {
		c.Link.DialTimeout = def.Link.DialTimeout
	}
	if c.Link.MaxLineLength == 0 {
		c.Link.MaxLineLength = def.Link.MaxLineLength
	}

	if c.Motor.RampStep == 0 {
		c.Motor.RampStep = def.Motor.RampStep
	}
	if c.Motor.Interval == 0 {
		c.Motor.Interval = def.Motor.Interval
	}
	if c.Motor.Gamma == 0 {
		c.Motor.Gamma = def.Motor.Gamma
	}
	if c.Motor.ResolutionBits == 0 {
		c.Motor.ResolutionBits = def.Motor.ResolutionBits
	}
	if c.Motor.PWMFrequency == 0 {
		c.Motor.PWMFrequency = def.Motor.PWMFrequency
	}

	if len(c.Pins.Motors) == 0 {
		c.Pins.Motors = def.Pins.Motors
	}

	if c.Pilot.Listen == "" {
		c.Pilot.Listen = def.Pilot.Listen
	}
	if c.Pilot.DefaultSpeed == 0 {
		c.Pilot.DefaultSpeed = def.Pilot.DefaultSpeed
	}
	if c.Pilot.SpeedStep == 0 {
		c.Pilot.SpeedStep = def.Pilot.SpeedStep
	}
	if c.Pilot.StreamPort == 0 {
		c.Pilot.StreamPort = def.Pilot.StreamPort
	}

	if c.Mock.MaxRPM == 0 {
		c.Mock.MaxRPM = def.Mock.MaxRPM
	}
	if c.Mock.TimeConst == 0 {
		c.Mock.TimeConst = def.Mock.TimeConst
	}
}
