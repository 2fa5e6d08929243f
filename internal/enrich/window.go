package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxWindow is the widest trailing window any metric needs
const maxWindow = 10

// WindowState holds the trailing closing prices per symbol, oldest first.
// Persisted between runs, it seeds window computations so they stay
// continuous across incremental batch boundaries instead of zero-filling
// every partition head.
type WindowState struct {
	Closes map[string][]float64 `json:"closes"`
}

// NewWindowState creates an empty window state
func NewWindowState() *WindowState {
	return &WindowState{Closes: make(map[string][]float64)}
}

// LoadWindowState reads a persisted window state. A missing file is a valid
// cold start and yields an empty state.
func LoadWindowState(path string) (*WindowState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewWindowState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read window state: %w", err)
	}

	var state WindowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode window state %s: %w", path, err)
	}
	if state.Closes == nil {
		state.Closes = make(map[string][]float64)
	}
	return &state, nil
}

// Save persists the window state, creating parent directories as needed
func (s *WindowState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode window state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write window state %s: %w", path, err)
	}
	return nil
}

// Seed returns the trailing closes for a symbol, oldest first
func (s *WindowState) Seed(symbol string) []float64 {
	return s.Closes[symbol]
}

// LastClose returns the most recent close for a symbol and ok=false when the
// symbol has no history.
func (s *WindowState) LastClose(symbol string) (float64, bool) {
	closes := s.Closes[symbol]
	if len(closes) == 0 {
		return 0, false
	}
	return closes[len(closes)-1], true
}

// PrevCloses returns the latest close per symbol, for seeding daily-return
// computation at partition heads.
func (s *WindowState) PrevCloses() map[string]float64 {
	prev := make(map[string]float64, len(s.Closes))
	for symbol := range s.Closes {
		if last, ok := s.LastClose(symbol); ok {
			prev[symbol] = last
		}
	}
	return prev
}

// extend appends a close for a symbol, keeping at most maxWindow entries
func (s *WindowState) extend(symbol string, close float64) {
	closes := append(s.Closes[symbol], close)
	if len(closes) > maxWindow {
		closes = closes[len(closes)-maxWindow:]
	}
	s.Closes[symbol] = closes
}
