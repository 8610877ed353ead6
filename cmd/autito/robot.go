package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/autito/pkg/config"
	"github.com/itohio/autito/pkg/driver"
	"github.com/itohio/autito/pkg/link"
	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/robot"
)

type RobotCommand struct {
	Server string `long:"server" description:"Pilot address to dial (host:port)"`
	Serial string `long:"serial" description:"Read commands from this serial port instead of TCP"`
	Mock   bool   `long:"mock" description:"Simulate the motors instead of driving GPIO pins"`
}

func (c *RobotCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Server != "" {
		cfg.Link.Transport = config.TransportTCP
		cfg.Link.Server = c.Server
	}
	if c.Serial != "" {
		cfg.Link.Transport = config.TransportSerial
		cfg.Link.SerialPort = c.Serial
	}

	dialer, err := newDialer(cfg.Link)
	if err != nil {
		return err
	}

	ramp := cfg.Motor.Ramp()
	var out motor.Output
	if c.Mock {
		mock := driver.NewMock(&cfg.Mock, ramp.MaxPWM())
		out = mock
		defer reportWheels(mock)()
	} else {
		gpio, err := driver.OpenGPIO(cfg.Pins.Motors, ramp.MaxPWM(), cfg.Motor.PWMFrequency)
		if err != nil {
			return err
		}
		defer func() {
			if err := gpio.Close(); err != nil {
				log.Printf("Error releasing pins: %v", err)
			}
		}()
		out = gpio
	}

	client := link.NewClient(dialer, link.Config{
		RetryInterval: cfg.Link.RetryInterval,
		MaxLineLength: cfg.Link.MaxLineLength,
	})
	car := robot.New(motor.New(ramp, out), client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Robot running, max PWM %d", ramp.MaxPWM())
	return car.Run(ctx)
}

func newDialer(cfg config.LinkConfig) (link.Dialer, error) {
	switch cfg.Transport {
	case config.TransportTCP:
		return link.TCPDialer{Addr: cfg.Server, Timeout: cfg.DialTimeout}, nil
	case config.TransportSerial:
		return link.SerialDialer{Port: cfg.SerialPort, BaudRate: cfg.BaudRate}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// reportWheels logs the simulated wheel speeds while they move. The returned
// function stops the reporting.
func reportWheels(m *driver.Mock) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var last [motor.Count]float64
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rpm := [motor.Count]float64{m.RPM(motor.Motor1), m.RPM(motor.Motor2)}
				if rpm != last {
					log.WithFields(log.Fields{"m1": fmt.Sprintf("%.0f", rpm[0]), "m2": fmt.Sprintf("%.0f", rpm[1])}).Info("Wheel rpm")
					last = rpm
				}
			}
		}
	}()
	return func() { close(done) }
}
