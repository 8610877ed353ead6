// Package robot runs the car: command lines from the link are executed
// against the motor controller, which is ticked continuously.
package robot

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/protocol"
)

const (
	// DefaultTickPeriod is how often the loop offers the controller a tick.
	// The controller throttles itself to its own interval.
	DefaultTickPeriod = 5 * time.Millisecond
	// DefaultStopTimeout bounds the ramp down on shutdown.
	DefaultStopTimeout = 3 * time.Second
)

// Link is the command transport.
type Link interface {
	Run(ctx context.Context) error
	Lines() <-chan string
	Send(line string) error
	Connected() bool
}

// Status is a snapshot for observers outside the loop.
type Status struct {
	Connected bool
	Motors    [motor.Count]motor.MotorState
	LastLine  string
	LastReply string
}

// Robot owns the motor controller. Only the Run goroutine touches it.
type Robot struct {
	ctrl *motor.Controller
	proc *protocol.Processor
	link Link

	TickPeriod  time.Duration
	StopTimeout time.Duration

	mu     sync.RWMutex
	status Status
}

// New creates a robot driving ctrl from commands received over l.
func New(ctrl *motor.Controller, l Link) *Robot {
	return &Robot{
		ctrl:        ctrl,
		proc:        protocol.NewProcessor(ctrl),
		link:        l,
		TickPeriod:  DefaultTickPeriod,
		StopTimeout: DefaultStopTimeout,
	}
}

// Status returns the latest snapshot.
func (r *Robot) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.status
	s.Connected = r.link.Connected()
	return s
}

// Run initializes the motors and serves commands until ctx is cancelled.
// On cancel the motors are ramped to a stop before Run returns.
func (r *Robot) Run(ctx context.Context) error {
	if err := r.ctrl.Init(); err != nil {
		return fmt.Errorf("failed to initialize motors: %w", err)
	}
	r.publish("", "")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.link.Run(ctx); err != nil {
			log.Printf("Link stopped: %v", err)
		}
	}()

	ticker := time.NewTicker(r.TickPeriod)
	defer ticker.Stop()

	lines := r.link.Lines()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return r.stop()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			r.handle(line)
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Robot) handle(line string) {
	reply, ok := r.proc.ProcessLine(line)
	if !ok {
		return
	}
	log.WithField("cmd", line).Debug(reply)
	r.publish(line, reply)

	if err := r.link.Send(reply); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

func (r *Robot) tick() {
	ticked, err := r.ctrl.Tick()
	if err != nil {
		log.Printf("Motor output error: %v", err)
	}
	if ticked {
		r.publish("", "")
	}
}

// stop ramps both motors down, giving up after StopTimeout.
func (r *Robot) stop() error {
	r.ctrl.StopAll()

	deadline := time.Now().Add(r.StopTimeout)
	for !r.ctrl.Idle() {
		if time.Now().After(deadline) {
			r.publish("", "")
			return fmt.Errorf("motors still running after %v", r.StopTimeout)
		}
		r.tick()
		time.Sleep(r.TickPeriod)
	}
	r.publish("", "")
	log.Print("Motors stopped")
	return nil
}

func (r *Robot) publish(line, reply string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Motors = r.ctrl.States()
	if reply != "" {
		r.status.LastLine = line
		r.status.LastReply = reply
	}
}
