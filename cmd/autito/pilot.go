package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/itohio/autito/pkg/pilot"
	"github.com/itohio/autito/pkg/protocol"
)

type PilotCommand struct {
	Listen string `long:"listen" description:"Address the car connects to"`
	HTTP   string `long:"http" description:"Command relay address, \"off\" disables it"`
	Speed  int    `long:"speed" description:"Initial speed 0-255"`
}

const (
	headerHeight = 3 // title + status + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	chartPeriod  = 100 * time.Millisecond
)

var motorColors = [...]string{"46", "51"} // green, cyan

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type pilotModel struct {
	server *pilot.Server
	driver *pilot.Driver
	events <-chan pilot.Event
	logCh  <-chan string
	chart  *streamlinechart.Model
	speeds pilot.Speeds
	width  int
	height int
	logs   []string

	quitting bool
}

type eventMsg pilot.Event
type logMsg string
type tickMsg time.Time

func waitForEvent(events <-chan pilot.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func waitForLog(logs <-chan string) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-logs)
	}
}

func tick() tea.Cmd {
	return tea.Tick(chartPeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func initialPilotModel(server *pilot.Server, driver *pilot.Driver, events <-chan pilot.Event, logs <-chan string) pilotModel {
	chart := streamlinechart.New(80, 12,
		streamlinechart.WithYRange(-255, 255),
	)
	for i, color := range motorColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(datasetName(i), runes.ThinLineStyle, style)
	}

	return pilotModel{
		server: server,
		driver: driver,
		events: events,
		logCh:  logs,
		chart:  &chart,
	}
}

func datasetName(i int) string {
	return fmt.Sprintf("M%d", i+1)
}

func (m *pilotModel) addLog(msg string) {
	m.logs = append(m.logs, time.Now().Format("15:04:05")+" "+msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *pilotModel) resizeChart() {
	w := max(m.width-borderSize-2, 40)
	h := max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 6)
	m.chart.Resize(w, h)
}

func (m pilotModel) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		waitForLog(m.logCh),
		tick(),
	)
}

func (m pilotModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			key = pilot.KeyQuit
		}
		cmds, quit := m.driver.Key(key)
		if quit {
			// leave the car stopped
			if err := m.server.Send(protocol.CmdStop); err != nil {
				m.addLog("Failed to stop the robot: " + err.Error())
			}
			m.quitting = true
			return m, tea.Quit
		}
		for _, cmd := range cmds {
			if err := m.server.Send(cmd); err != nil {
				m.addLog(err.Error())
				break
			}
		}
		return m, nil

	case eventMsg:
		ev := pilot.Event(msg)
		switch ev.Kind {
		case pilot.EventConnected:
			m.addLog("Robot connected from " + ev.Addr)
		case pilot.EventDisconnected:
			m.addLog("Robot disconnected")
			m.speeds = pilot.Speeds{}
		case pilot.EventSent:
			m.addLog("-> " + ev.Line)
		case pilot.EventReply:
			m.speeds.Apply(ev.Reply)
			m.addLog("<- " + ev.Line)
		}
		return m, waitForEvent(m.events)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.logCh)

	case tickMsg:
		for i, v := range m.speeds {
			m.chart.PushDataSet(datasetName(i), float64(v))
		}
		m.chart.DrawAll()
		return m, tick()
	}

	return m, nil
}

func (m pilotModel) View() string {
	if m.quitting {
		return "Pilot stopped.\n"
	}

	st := m.server.Status()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("autito pilot"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  listening on %s  speed %d", st.Listen, m.driver.Speed())))
	sb.WriteString("\n")
	if st.Connected {
		sb.WriteString(onStyle.Render("● " + st.RobotAddr))
		sb.WriteString(statusStyle.Render("  stream " + st.StreamURL))
	} else {
		sb.WriteString(offStyle.Render("○ waiting for the robot"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend(m.speeds))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	logLines := statusStyle.Render("arrows drive, space stops, +/- speed, p ping, q quits")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend(speeds pilot.Speeds) string {
	items := make([]string, 0, len(speeds))
	for i, v := range speeds {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(motorColors[i])).Bold(true)
		items = append(items, colorStyle.Render("━━")+fmt.Sprintf(" %s %4d", datasetName(i), v))
	}
	return strings.Join(items, "  ")
}

// logHook forwards log entries to the TUI.
type logHook struct {
	ch chan string
}

func (h *logHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *logHook) Fire(e *log.Entry) error {
	select {
	case h.ch <- e.Message:
	default:
	}
	return nil
}

func (c *PilotCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Pilot.Listen = c.Listen
	}
	if c.HTTP != "" {
		cfg.Pilot.HTTP = c.HTTP
	}
	if c.HTTP == "off" {
		cfg.Pilot.HTTP = ""
	}
	if c.Speed != 0 {
		cfg.Pilot.DefaultSpeed = c.Speed
	}

	server := pilot.NewServer(cfg.Pilot.Listen, cfg.Pilot.StreamPort)
	if err := server.Listen(); err != nil {
		return err
	}

	// the terminal belongs to the TUI from here on
	hook := &logHook{ch: make(chan string, 16)}
	log.AddHook(hook)
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Serve(ctx); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	if cfg.Pilot.HTTP != "" {
		srv := &http.Server{Addr: cfg.Pilot.HTTP, Handler: pilot.Handler(server)}
		go func() {
			log.Printf("Command relay on http://%s/cmd", cfg.Pilot.HTTP)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Relay error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	events, unsubscribe := server.Subscribe()
	defer unsubscribe()

	driver := pilot.NewDriver(cfg.Pilot.DefaultSpeed, cfg.Pilot.SpeedStep)
	p := tea.NewProgram(initialPilotModel(server, driver, events, hook.ch), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
