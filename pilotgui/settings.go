package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/autito/pkg/config"
	"github.com/itohio/autito/pkg/link"
)

// showSettingsDialog displays the configuration tabs. Each tab saves the
// whole configuration on submit.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createPilotTab(state),
		createLinkTab(state),
		createMotorTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 450))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 450))
	d.Show()
}

func saveConfig(state *appState) {
	if err := state.cfg.Save(state.cfgPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createPilotTab edits the PC side. A new listen address applies on the next
// Listen.
func createPilotTab(state *appState) *container.TabItem {
	listenEntry := widget.NewEntry()
	listenEntry.SetText(state.cfg.Pilot.Listen)

	speedEntry := widget.NewEntry()
	speedEntry.SetText(strconv.Itoa(state.cfg.Pilot.DefaultSpeed))

	stepEntry := widget.NewEntry()
	stepEntry.SetText(strconv.Itoa(state.cfg.Pilot.SpeedStep))

	streamEntry := widget.NewEntry()
	streamEntry.SetText(strconv.Itoa(state.cfg.Pilot.StreamPort))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Listen", Widget: listenEntry},
			{Text: "Default Speed", Widget: speedEntry},
			{Text: "Speed Step", Widget: stepEntry},
			{Text: "Video Stream Port", Widget: streamEntry},
		},
		OnSubmit: func() {
			if listenEntry.Text != "" {
				state.cfg.Pilot.Listen = listenEntry.Text
			}
			if v, err := strconv.Atoi(speedEntry.Text); err == nil {
				state.cfg.Pilot.DefaultSpeed = v
				state.driver.SetSpeed(v)
				state.speed.SetText(speedText(state.driver.Speed()))
			}
			if v, err := strconv.Atoi(stepEntry.Text); err == nil && v > 0 {
				state.cfg.Pilot.SpeedStep = v
			}
			if v, err := strconv.Atoi(streamEntry.Text); err == nil {
				state.cfg.Pilot.StreamPort = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Pilot", form)
}

// createLinkTab edits how the car reaches the pilot.
func createLinkTab(state *appState) *container.TabItem {
	transportSelect := widget.NewSelect([]string{config.TransportTCP, config.TransportSerial}, nil)
	transportSelect.SetSelected(state.cfg.Link.Transport)

	serverEntry := widget.NewEntry()
	serverEntry.SetText(state.cfg.Link.Server)

	options, portMap, current := portOptions(state.cfg.Link.SerialPort)
	portSelect := widget.NewSelect(options, nil)
	if current != "" {
		portSelect.SetSelected(current)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Link.BaudRate))

	retryEntry := widget.NewEntry()
	retryEntry.SetText(state.cfg.Link.RetryInterval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Transport", Widget: transportSelect},
			{Text: "Server", Widget: serverEntry},
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "Retry Interval", Widget: retryEntry},
		},
		OnSubmit: func() {
			if transportSelect.Selected != "" {
				state.cfg.Link.Transport = transportSelect.Selected
			}
			if serverEntry.Text != "" {
				state.cfg.Link.Server = serverEntry.Text
			}
			if portSelect.Selected != "" {
				port := portMap[portSelect.Selected]
				if port == "" {
					port = portSelect.Selected
				}
				state.cfg.Link.SerialPort = port
			}
			if v, err := strconv.Atoi(baudEntry.Text); err == nil && v > 0 {
				state.cfg.Link.BaudRate = v
			}
			if v, err := time.ParseDuration(retryEntry.Text); err == nil && v > 0 {
				state.cfg.Link.RetryInterval = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Link", form)
}

// portOptions lists serial ports for a select, keeping the configured port
// even when it is not plugged in.
func portOptions(currentPort string) ([]string, map[string]string, string) {
	options := []string{}
	portMap := make(map[string]string)

	if ports, err := link.Ports(); err == nil {
		for _, port := range ports {
			display := port.Name
			if port.Description != "" && port.Description != port.Name {
				display = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			options = append(options, display)
			portMap[display] = port.Name
		}
	}

	for _, opt := range options {
		if portMap[opt] == currentPort {
			return options, portMap, opt
		}
	}
	if currentPort != "" {
		options = append(options, currentPort)
		portMap[currentPort] = currentPort
	}
	return options, portMap, currentPort
}

// createMotorTab edits the ramp used by the car.
func createMotorTab(state *appState) *container.TabItem {
	m := &state.cfg.Motor

	stepEntry := widget.NewEntry()
	stepEntry.SetText(strconv.Itoa(int(m.RampStep)))

	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(m.Interval.String())

	gammaEntry := widget.NewEntry()
	gammaEntry.SetText(fmt.Sprintf("%.2f", m.Gamma))

	bitsEntry := widget.NewEntry()
	bitsEntry.SetText(strconv.Itoa(int(m.ResolutionBits)))

	freqEntry := widget.NewEntry()
	freqEntry.SetText(strconv.Itoa(m.PWMFrequency))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Ramp Step", Widget: stepEntry},
			{Text: "Ramp Interval", Widget: intervalEntry},
			{Text: "Gamma", Widget: gammaEntry},
			{Text: "PWM Resolution (bits)", Widget: bitsEntry},
			{Text: "PWM Frequency (Hz)", Widget: freqEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseUint(stepEntry.Text, 10, 16); err == nil && v > 0 {
				m.RampStep = uint16(v)
			}
			if v, err := time.ParseDuration(intervalEntry.Text); err == nil && v > 0 {
				m.Interval = v
			}
			if v, err := strconv.ParseFloat(gammaEntry.Text, 32); err == nil && v > 0 {
				m.Gamma = float32(v)
			}
			if v, err := strconv.ParseUint(bitsEntry.Text, 10, 8); err == nil && v > 0 && v <= 16 {
				m.ResolutionBits = uint8(v)
			}
			if v, err := strconv.Atoi(freqEntry.Text); err == nil && v > 0 {
				m.PWMFrequency = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Motor", form)
}
