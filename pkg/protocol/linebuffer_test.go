package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedAll(b *LineBuffer, s string) []string {
	var lines []string
	b.Write([]byte(s), func(line string) {
		lines = append(lines, line)
	})
	return lines
}

func TestLineBuffer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "PING\n", []string{"PING"}},
		{"crlf", "STOP\r\n", []string{"STOP"}},
		{"several", "PING\nALL F 100\n", []string{"PING", "ALL F 100"}},
		{"partial", "PIN", nil},
		{"empty line", "\n", []string{""}},
		{"backspace", "PINX\bG\n", []string{"PING"}},
		{"delete", "PINX\x7fG\n", []string{"PING"}},
		{"backspace on empty", "\b\bOK\n", []string{"OK"}},
		{"non printable dropped", "P\x01I\x1bN\xffG\n", []string{"PING"}},
		{"tab dropped", "ALL\tF\n", []string{"ALLF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLineBuffer(0)
			assert.Equal(t, tt.want, feedAll(b, tt.input))
		})
	}
}

func TestLineBuffer_Truncation(t *testing.T) {
	b := NewLineBuffer(8)

	assert.Empty(t, feedAll(b, "0123456789ABCDEF"))
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, []string{"89ABCDEF"}, feedAll(b, "\n"))
	assert.Zero(t, b.Len())
}

func TestLineBuffer_DefaultMax(t *testing.T) {
	b := NewLineBuffer(-1)
	long := strings.Repeat("a", 250) + strings.Repeat("b", DefaultMaxLineLength)

	lines := feedAll(b, long+"\n")
	assert.Equal(t, []string{strings.Repeat("b", DefaultMaxLineLength)}, lines)
}

func TestLineBuffer_Reset(t *testing.T) {
	b := NewLineBuffer(0)
	feedAll(b, "garbage")
	b.Reset()
	assert.Equal(t, []string{"PING"}, feedAll(b, "PING\n"))
}
