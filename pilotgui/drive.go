package main

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/autito/pkg/pilot"
)

// createDrivePad lays out the direction buttons and the speed controls.
func createDrivePad(state *appState) fyne.CanvasObject {
	btn := func(key string, icon fyne.Resource) *widget.Button {
		b := widget.NewButtonWithIcon("", icon, func() {
			handleKey(state, key)
		})
		return b
	}

	state.dirBtns = map[string]*widget.Button{
		pilot.KeyUp:    btn(pilot.KeyUp, theme.MoveUpIcon()),
		pilot.KeyDown:  btn(pilot.KeyDown, theme.MoveDownIcon()),
		pilot.KeyLeft:  btn(pilot.KeyLeft, theme.NavigateBackIcon()),
		pilot.KeyRight: btn(pilot.KeyRight, theme.NavigateNextIcon()),
	}
	stop := btn(pilot.KeySpace, theme.MediaStopIcon())
	state.dirBtns[pilot.KeySpace] = stop

	pad := container.NewGridWithColumns(3,
		widget.NewLabel(""), state.dirBtns[pilot.KeyUp], widget.NewLabel(""),
		state.dirBtns[pilot.KeyLeft], stop, state.dirBtns[pilot.KeyRight],
		widget.NewLabel(""), state.dirBtns[pilot.KeyDown], widget.NewLabel(""),
	)

	state.speed = widget.NewLabel(speedText(state.driver.Speed()))
	speedRow := container.NewHBox(
		btn(pilot.KeySlower, theme.ContentRemoveIcon()),
		state.speed,
		btn(pilot.KeyFaster, theme.ContentAddIcon()),
	)
	ping := widget.NewButton("PING", func() {
		handleKey(state, pilot.KeyPing)
	})

	return container.NewVBox(pad, speedRow, ping)
}

// handleKey sends the commands bound to key.
func handleKey(state *appState, key string) {
	cmds, quit := state.driver.Key(key)
	if quit {
		state.window.Close()
		return
	}
	state.speed.SetText(speedText(state.driver.Speed()))
	if len(cmds) == 0 {
		return
	}
	if state.server == nil {
		dialog.ShowError(pilot.ErrNoRobot, state.window)
		return
	}
	for _, cmd := range cmds {
		if err := state.server.Send(cmd); err != nil {
			state.status.SetText(err.Error())
			return
		}
	}
	if _, ok := state.dirBtns[key]; ok {
		updateDirButtons(state, key)
	}
}

// updateDirButtons highlights the last direction sent.
func updateDirButtons(state *appState, active string) {
	for key, b := range state.dirBtns {
		if key == active {
			b.Importance = widget.HighImportance
		} else {
			b.Importance = widget.MediumImportance
		}
		b.Refresh()
	}
}

func bindKeys(state *appState) {
	c := state.window.Canvas()
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if key := keyName(ev.Name); key != "" {
			handleKey(state, key)
		}
	})
	c.SetOnTypedRune(func(r rune) {
		if key := runeKey(r); key != "" {
			handleKey(state, key)
		}
	})
}

// keyName maps navigation keys. Printable keys arrive through runeKey.
func keyName(name fyne.KeyName) string {
	switch name {
	case fyne.KeyUp:
		return pilot.KeyUp
	case fyne.KeyDown:
		return pilot.KeyDown
	case fyne.KeyLeft:
		return pilot.KeyLeft
	case fyne.KeyRight:
		return pilot.KeyRight
	}
	return ""
}

func runeKey(r rune) string {
	switch r {
	case ' ':
		return pilot.KeySpace
	case '+', '=':
		return pilot.KeyFaster
	case '-':
		return pilot.KeySlower
	case 'p', 'P':
		return pilot.KeyPing
	case 'q', 'Q':
		return pilot.KeyQuit
	}
	return ""
}

func speedText(speed int) string {
	return "Speed " + strconv.Itoa(speed)
}
