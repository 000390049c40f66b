package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	HistoryFileName = "history.json"

	// MaxEntries bounds the history file; older entries are dropped first
	MaxEntries = 500
)

// Entry represents a single search history entry
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	TopK      int       `json:"top_k"`
	ResultIDs []int64   `json:"result_ids,omitempty"`
}

// History manages search history
type History struct {
	Entries []Entry `json:"entries"`

	path string
}

// GetHistoryPath returns the path to the history file
func GetHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".medsearch", HistoryFileName), nil
}

// Load reads the history from the default path
func Load() (*History, error) {
	historyPath, err := GetHistoryPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(historyPath)
}

// LoadFile reads the history from path
func LoadFile(historyPath string) (*History, error) {
	// If history doesn't exist, return empty history
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		return &History{Entries: []Entry{}, path: historyPath}, nil
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var hist History
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	hist.path = historyPath

	return &hist, nil
}

// Save writes the history to the file it was loaded from
func (h *History) Save() error {
	if h.path == "" {
		return fmt.Errorf("history has no file path")
	}

	// Ensure directory exists
	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// AddEntry adds a new entry to the history, dropping the oldest past MaxEntries
func (h *History) AddEntry(entry Entry) {
	h.Entries = append(h.Entries, entry)
	if over := len(h.Entries) - MaxEntries; over > 0 {
		h.Entries = append([]Entry(nil), h.Entries[over:]...)
	}
}

// Recent returns up to n entries, newest first
func (h *History) Recent(n int) []Entry {
	if n <= 0 || n > len(h.Entries) {
		n = len(h.Entries)
	}
	out := make([]Entry, 0, n)
	for i := len(h.Entries) - 1; i >= len(h.Entries)-n; i-- {
		out = append(out, h.Entries[i])
	}
	return out
}

// NewEntry creates a new history entry
func NewEntry(query string, topK int, resultIDs []int64) Entry {
	return Entry{
		Timestamp: time.Now(),
		Query:     query,
		TopK:      topK,
		ResultIDs: resultIDs,
	}
}
