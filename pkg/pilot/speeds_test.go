package pilot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/autito/pkg/protocol"
)

func TestSpeeds_Apply(t *testing.T) {
	var s Speeds

	steps := []struct {
		line    string
		changed bool
		want    Speeds
	}{
		{"ACK ALL F 150", true, Speeds{150, 150}},
		{"ACK MOTOR 1 R 100", true, Speeds{-100, 150}},
		{"PONG", false, Speeds{-100, 150}},
		{"ERR comando desconocido", false, Speeds{-100, 150}},
		{"ACK MOTOR 9 F 1", false, Speeds{-100, 150}},
		{"ACK ALL F x", false, Speeds{-100, 150}},
		{"ACK ALL R 20", true, Speeds{-20, -20}},
		{"ACK STOP", true, Speeds{}},
	}

	for _, step := range steps {
		changed := s.Apply(protocol.ParseReply(step.line))
		assert.Equal(t, step.changed, changed, step.line)
		assert.Equal(t, step.want, s, step.line)
	}
}
