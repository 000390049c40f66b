package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short", "glucose normal", 20, "glucose normal"},
		{"collapses whitespace", "line one\n\n  line\ttwo", 50, "line one line two"},
		{"truncates", "hemoglobin within range", 10, "hemogl..."},
		{"tiny max", "hemoglobin", 2, "he"},
		{"no limit", "a  b", 0, "a b"},
		{"runes", "ñandú ñandú", 8, "ñandú..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.text, tt.max))
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"ID", "Filename"}, [][]string{{"1", "lab.txt"}, {"2", "rx.txt"}})

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Filename")
	assert.Contains(t, out, "lab.txt")
	assert.Contains(t, out, "rx.txt")
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "never", RelativeTime(time.Time{}))
	assert.Contains(t, RelativeTime(time.Now().Add(-3*time.Hour)), "hours ago")
}

func TestTerminalWidthFallback(t *testing.T) {
	// stdout is not a terminal under go test
	assert.Positive(t, TerminalWidth())
}
