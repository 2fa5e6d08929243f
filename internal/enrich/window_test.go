package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWindowStateColdStart(t *testing.T) {
	state, err := LoadWindowState(filepath.Join(t.TempDir(), "window_seed.json"))
	require.NoError(t, err)

	assert.Empty(t, state.Closes)
	_, ok := state.LastClose("AAPL")
	assert.False(t, ok)
}

func TestWindowStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "window_seed.json")

	state := NewWindowState()
	state.extend("AAPL", 100)
	state.extend("AAPL", 101)
	state.extend("MSFT", 200)
	require.NoError(t, state.Save(path))

	loaded, err := LoadWindowState(path)
	require.NoError(t, err)

	assert.Equal(t, []float64{100, 101}, loaded.Seed("AAPL"))
	last, ok := loaded.LastClose("MSFT")
	require.True(t, ok)
	assert.Equal(t, 200.0, last)
}

func TestWindowStateCapsAtMaxWindow(t *testing.T) {
	state := NewWindowState()
	for i := 0; i < 25; i++ {
		state.extend("AAPL", float64(i))
	}

	closes := state.Seed("AAPL")
	require.Len(t, closes, maxWindow)
	assert.Equal(t, 15.0, closes[0], "oldest entries evicted")
	assert.Equal(t, 24.0, closes[maxWindow-1])
}

func TestWindowStatePrevCloses(t *testing.T) {
	state := NewWindowState()
	state.extend("AAPL", 100)
	state.extend("AAPL", 105)
	state.extend("MSFT", 200)

	prev := state.PrevCloses()
	assert.Equal(t, map[string]float64{"AAPL": 105, "MSFT": 200}, prev)
}

func TestLoadWindowStateCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window_seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadWindowState(path)
	assert.Error(t, err)
}
