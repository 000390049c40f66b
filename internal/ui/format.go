package ui

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// DefaultWidth is used when stdout is not a terminal
const DefaultWidth = 100

// TerminalWidth returns the width of stdout, or DefaultWidth
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// RenderTable formats rows under headers
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}

// Preview collapses whitespace and shortens text to at most max runes
func Preview(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if max <= 0 {
		return flat
	}

	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// RelativeTime formats t like "3 days ago"
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
