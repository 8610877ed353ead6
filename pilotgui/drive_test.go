package main

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"

	"github.com/itohio/autito/pkg/pilot"
)

func TestKeyName(t *testing.T) {
	assert.Equal(t, pilot.KeyUp, keyName(fyne.KeyUp))
	assert.Equal(t, pilot.KeyDown, keyName(fyne.KeyDown))
	assert.Equal(t, pilot.KeyLeft, keyName(fyne.KeyLeft))
	assert.Equal(t, pilot.KeyRight, keyName(fyne.KeyRight))
	assert.Empty(t, keyName(fyne.KeyEscape))
}

func TestRuneKey(t *testing.T) {
	tests := map[rune]string{
		' ': pilot.KeySpace,
		'+': pilot.KeyFaster,
		'=': pilot.KeyFaster,
		'-': pilot.KeySlower,
		'p': pilot.KeyPing,
		'Q': pilot.KeyQuit,
		'x': "",
	}
	for r, want := range tests {
		assert.Equal(t, want, runeKey(r), "rune %q", r)
	}
}

func TestRuneKeyDrivesDriver(t *testing.T) {
	d := pilot.NewDriver(150, 10)

	cmds, quit := d.Key(runeKey('+'))
	assert.False(t, quit)
	assert.Empty(t, cmds)
	assert.Equal(t, 160, d.Speed())

	cmds, _ = d.Key(keyName(fyne.KeyUp))
	assert.Equal(t, []string{"ALL F 160"}, cmds)
}
