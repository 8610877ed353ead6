package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/itohio/autito/pkg/config"
	"github.com/itohio/autito/pkg/pilot"
	"github.com/itohio/autito/pkg/protocol"
	"github.com/itohio/autito/pkg/sample"
	"github.com/itohio/autito/pkg/scope"
)

type Options struct {
	Config string `short:"c" long:"config" default:"autito.yaml" description:"Configuration file"`
	Listen string `short:"l" long:"listen" description:"Address the car connects to"`
}

const samplePeriod = 100 * time.Millisecond

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if opts.Listen != "" {
		cfg.Pilot.Listen = opts.Listen
	}

	application := app.NewWithID("com.itohio.autito")

	window := application.NewWindow("autito pilot")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	state := &appState{
		cfg:     cfg,
		cfgPath: opts.Config,
		window:  window,
		driver:  pilot.NewDriver(cfg.Pilot.DefaultSpeed, cfg.Pilot.SpeedStep),
		samples: sample.NewWindow(sample.DefaultSpan),
	}
	state.scope = scope.New(state.samples, 255)
	state.status = widget.NewLabel("Not listening")

	toolbar := createToolbar(state)
	pad := createDrivePad(state)

	window.SetContent(container.NewBorder(
		toolbar,
		state.status,
		nil,
		pad,
		state.scope,
	))
	bindKeys(state)

	window.SetOnClosed(func() {
		stopServer(state)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg     *config.Config
	cfgPath string
	window  fyne.Window
	driver  *pilot.Driver
	samples *sample.Window
	scope   *scope.ScopeWidget

	status    *widget.Label
	listenBtn *widget.Button
	dirBtns   map[string]*widget.Button
	speed     *widget.Label

	// Running server and its goroutines, nil when not listening.
	server *pilot.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	speeds pilot.Speeds
}

func createToolbar(state *appState) fyne.CanvasObject {
	listenBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleListen(state)
	})
	state.listenBtn = listenBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	stopBtn := widget.NewButtonWithIcon("STOP", theme.MediaStopIcon(), func() {
		handleKey(state, pilot.KeySpace)
	})
	stopBtn.Importance = widget.DangerImportance

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(listenBtn, settingsBtn),
		stopBtn,
		nil,
	)
}

// handleListen starts or stops the pilot server.
func handleListen(state *appState) {
	if state.server != nil {
		stopServer(state)
		state.listenBtn.SetIcon(theme.LoginIcon())
		state.status.SetText("Not listening")
		return
	}

	server := pilot.NewServer(state.cfg.Pilot.Listen, state.cfg.Pilot.StreamPort)
	if err := server.Listen(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to listen on %s: %w", state.cfg.Pilot.Listen, err), state.window)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	state.server = server
	state.cancel = cancel
	state.listenBtn.SetIcon(theme.LogoutIcon())
	state.status.SetText("Waiting for the robot on " + server.Addr().String())

	events, unsubscribe := server.Subscribe()

	state.wg.Add(3)
	go func() {
		defer state.wg.Done()
		if err := server.Serve(ctx); err != nil {
			log.Errorf("Server error: %v", err)
		}
	}()
	go func() {
		defer state.wg.Done()
		defer unsubscribe()
		consumeEvents(ctx, state, events)
	}()
	go func() {
		defer state.wg.Done()
		sampleSpeeds(ctx, state)
	}()
}

func stopServer(state *appState) {
	if state.server == nil {
		return
	}
	// leave the car stopped
	if err := state.server.Send(protocol.CmdStop); err != nil {
		log.Warnf("Failed to stop the robot: %v", err)
	}
	state.cancel()
	state.wg.Wait()
	state.server = nil
	state.cancel = nil

	state.mu.Lock()
	state.speeds = pilot.Speeds{}
	state.mu.Unlock()
}

// consumeEvents tracks replies and mirrors the connection in the status bar.
func consumeEvents(ctx context.Context, state *appState, events <-chan pilot.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var text string
			switch ev.Kind {
			case pilot.EventConnected:
				text = "Robot connected from " + ev.Addr
			case pilot.EventDisconnected:
				text = "Robot disconnected"
				state.mu.Lock()
				state.speeds = pilot.Speeds{}
				state.mu.Unlock()
			case pilot.EventReply:
				state.mu.Lock()
				state.speeds.Apply(ev.Reply)
				state.mu.Unlock()
				text = "<- " + ev.Line
			case pilot.EventSent:
				text = "-> " + ev.Line
			}
			log.Debug(text)
			fyne.Do(func() {
				state.status.SetText(text)
			})
		}
	}
}

// sampleSpeeds feeds the scope with the acknowledged speeds.
func sampleSpeeds(ctx context.Context, state *appState) {
	ticker := time.NewTicker(samplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			state.mu.Lock()
			speeds := state.speeds
			state.mu.Unlock()

			s := sample.Sample{Timestamp: now}
			for i, v := range speeds {
				s.Speeds[i] = float64(v)
			}
			state.samples.Push(s)
			fyne.Do(state.scope.Update)
		}
	}
}
