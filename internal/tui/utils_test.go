package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
	}{
		{"hello there", "", nil},
		{"/undo", "undo", []string{}},
		{"  /REACT 2 👍 ", "react", []string{"2", "👍"}},
		{"/", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, args := parseInput(tt.line)

			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestMoodGauge(t *testing.T) {
	assert.Equal(t, "█████░░░░░", moodGauge(50, 10))
	assert.Equal(t, "░░░░", moodGauge(-5, 4))
	assert.Equal(t, "████", moodGauge(250, 4))
	assert.Equal(t, "", moodGauge(50, 0))
}

func TestFormatReactions(t *testing.T) {
	assert.Equal(t, "", formatReactions(nil))
	assert.Equal(t, "🎉 1  👍 2", formatReactions(map[string][]string{
		"👍": {"alice", "bob"},
		"🎉": {"carol"},
	}))
}
