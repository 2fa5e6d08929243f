package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocketl/internal/aggregate"
	"stocketl/internal/enrich"
	"stocketl/internal/exporter"
	"stocketl/internal/files"
	"stocketl/internal/normalize"
	"stocketl/internal/watermark"
)

// fakeStore is a watermark.Store with a canned answer
type fakeStore struct {
	latest time.Time
	ok     bool
	err    error
}

func (f fakeStore) MaxDateKey(ctx context.Context) (time.Time, bool, error) {
	return f.latest, f.ok, f.err
}

// testDirs lays out a run's directories with one raw snapshot in place
type testDirs struct {
	data, raw, normalized, aggregated string
	seedFile                          string
}

func newTestDirs(t *testing.T) testDirs {
	t.Helper()
	data := t.TempDir()
	dirs := testDirs{
		data:       data,
		raw:        filepath.Join(data, "raw"),
		normalized: filepath.Join(data, "normalized"),
		aggregated: filepath.Join(data, "aggregated"),
		seedFile:   filepath.Join(data, "state", "window_seed.json"),
	}
	require.NoError(t, os.MkdirAll(dirs.raw, 0755))
	return dirs
}

// writeRawBatch writes two symbols with six daily rows each, close rising by
// one per day from 100 and 200 respectively.
func writeRawBatch(t *testing.T, dirs testDirs) {
	t.Helper()
	var rows string
	for d := 1; d <= 6; d++ {
		date := fmt.Sprintf("2024-11-%02d", d)
		aapl := 100 + float64(d-1)
		msft := 200 + float64(d-1)
		rows += fmt.Sprintf("AAPL,Apple Inc.,%s,%v,%v,%v,%v,1000\n", date, aapl-1, aapl+1, aapl-2, aapl)
		rows += fmt.Sprintf("MSFT,Microsoft Corp.,%s,%v,%v,%v,%v,2000\n", date, msft-1, msft+1, msft-2, msft)
	}
	content := "Symbol,CompanyName,Date,OpenPrice,High,Low,ClosePrice,Volume\n" + rows
	require.NoError(t, os.WriteFile(filepath.Join(dirs.raw, "extracted_data_20241106.csv"), []byte(content), 0644))
}

// newRunner builds the production step sequence over the test directories.
// Each run gets its own snapshot timestamp so successive runs in one test
// never collide on artifact names.
func newRunner(t *testing.T, dirs testDirs, store watermark.Store, at time.Time, resetSeed bool) *Runner {
	t.Helper()
	resolver := normalize.NewStaticResolver(map[string]int64{
		"Apple Inc.":      1,
		"Microsoft Corp.": 2,
	})
	clock := exporter.WithClock(func() time.Time { return at })

	return NewRunner(nil,
		NewDiscoverStep(files.NewDiscovery(dirs.data), dirs.raw, "extracted_data", ".csv"),
		NewWatermarkStep(watermark.NewTracker(store, nil), dirs.seedFile, resetSeed),
		NewNormalizeStep(normalize.NewNormalizer(resolver, nil, nil)),
		NewEnrichStep(enrich.NewEngine(nil)),
		NewWriteNormalizedStep(exporter.NewWriter(dirs.normalized, ".csv", nil, clock), "transformed_data", nil),
		NewAggregateStep(aggregate.NewAggregator(nil)),
		NewWriteAggregatedStep(exporter.NewWriter(dirs.aggregated, ".csv", nil, clock), "aggregated_data", nil),
		NewPersistStateStep(dirs.seedFile),
	)
}

func runAt(hour int) time.Time {
	return time.Date(2024, 11, 13, hour, 0, 0, 0, time.UTC)
}

func readSnapshot(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunColdStartScenario(t *testing.T) {
	dirs := newTestDirs(t)
	writeRawBatch(t, dirs)

	runner := newRunner(t, dirs, watermark.ColdStartStore{}, runAt(9), false)
	state, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, state.Cutoff)
	assert.Len(t, state.Records, 12)
	require.Len(t, state.Summaries, 2)

	// AAPL partition: daily return is 1/prevClose from day 2 onward.
	var aapl []int
	for i, r := range state.Records {
		if r.Symbol == "AAPL" {
			aapl = append(aapl, i)
		}
	}
	require.Len(t, aapl, 6)
	head := state.Records[aapl[0]]
	assert.False(t, head.HasPrevClose)
	assert.Equal(t, 0.0, head.DailyReturn)
	second := state.Records[aapl[1]]
	assert.InDelta(t, 1.0/100.0, second.DailyReturn, 1e-12)

	// Moving average populates at row 5, trend at row 6.
	enrichedAAPL := make([]int, 0, 6)
	for i, r := range state.Enriched {
		if r.Symbol == "AAPL" {
			enrichedAAPL = append(enrichedAAPL, i)
		}
	}
	require.Len(t, enrichedAAPL, 6)
	assert.Equal(t, 0.0, state.Enriched[enrichedAAPL[3]].MovingAvg5)
	assert.InDelta(t, 102.0, state.Enriched[enrichedAAPL[4]].MovingAvg5, 1e-12)
	assert.Equal(t, 0.0, state.Enriched[enrichedAAPL[4]].Trend)
	assert.InDelta(t, (105.0/100.0-1)*100, state.Enriched[enrichedAAPL[5]].Trend, 1e-12)

	// Both artifacts written, with header plus one row per record/company.
	assert.Len(t, readSnapshot(t, state.NormalizedPath), 13)
	aggRows := readSnapshot(t, state.AggregatedPath)
	require.Len(t, aggRows, 3)

	// Round trip: aggregated total volume equals the direct per-company sum.
	assert.Equal(t, "1", aggRows[1][0])
	assert.Equal(t, strconv.Itoa(6*1000), aggRows[1][2])
	assert.Equal(t, "2", aggRows[2][0])
	assert.Equal(t, strconv.Itoa(6*2000), aggRows[2][2])

	// Window state persisted for the next run.
	_, err = os.Stat(dirs.seedFile)
	assert.NoError(t, err)
}

func TestRunRefeedPastWatermarkYieldsEmptySnapshots(t *testing.T) {
	dirs := newTestDirs(t)
	writeRawBatch(t, dirs)

	store := fakeStore{latest: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC), ok: true}
	runner := newRunner(t, dirs, store, runAt(9), false)

	state, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, state.Records)
	assert.Equal(t, 12, state.NormalizeStats.RowsFiltered)
	assert.Len(t, readSnapshot(t, state.NormalizedPath), 1, "header only")
}

func TestRunWatermarkFailureAbortsBeforeOutput(t *testing.T) {
	dirs := newTestDirs(t)
	writeRawBatch(t, dirs)

	store := fakeStore{err: fmt.Errorf("connection refused")}
	runner := newRunner(t, dirs, store, runAt(9), false)

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), StepIDWatermark)

	// No artifact may exist after a failed run.
	_, statErr := os.Stat(dirs.normalized)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunMissingInputIsFatal(t *testing.T) {
	dirs := newTestDirs(t)

	runner := newRunner(t, dirs, watermark.ColdStartStore{}, runAt(9), false)
	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), StepIDDiscover)
}

func TestRunSeedCarriesWindowsAcrossRuns(t *testing.T) {
	dirs := newTestDirs(t)
	writeRawBatch(t, dirs)

	// First run over the full history.
	runner := newRunner(t, dirs, watermark.ColdStartStore{}, runAt(9), false)
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	// Second run: one new day per symbol past the watermark.
	content := "Symbol,CompanyName,Date,OpenPrice,High,Low,ClosePrice,Volume\n" +
		"AAPL,Apple Inc.,2024-11-07,105,107,104,106,1000\n" +
		"MSFT,Microsoft Corp.,2024-11-07,205,207,204,206,2000\n"
	second := filepath.Join(dirs.raw, "extracted_data_20241107.csv")
	require.NoError(t, os.WriteFile(second, []byte(content), 0644))
	// Force a newer modtime so discovery prefers this file.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(second, future, future))

	store := fakeStore{latest: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC), ok: true}
	state, err := newRunner(t, dirs, store, runAt(10), false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, state.Records, 2)
	for _, r := range state.Records {
		assert.True(t, r.HasPrevClose, "seeded head for %s", r.Symbol)
	}

	var aapl *int
	for i, r := range state.Enriched {
		if r.Symbol == "AAPL" {
			idx := i
			aapl = &idx
		}
	}
	require.NotNil(t, aapl)
	row := state.Enriched[*aapl]
	// Previous close 105 comes from the prior run's window state.
	assert.InDelta(t, 1.0/105.0, row.DailyReturn, 1e-12)
	// Trailing window spans the batch boundary: mean of 102..106.
	assert.InDelta(t, 104.0, row.MovingAvg5, 1e-12)
}

func TestRunFullReworkIgnoresExistingSeed(t *testing.T) {
	dirs := newTestDirs(t)
	writeRawBatch(t, dirs)

	// First run leaves a window seed ending at the newest closes (105, 205).
	_, err := newRunner(t, dirs, watermark.ColdStartStore{}, runAt(9), false).Run(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(dirs.seedFile)
	require.NoError(t, err)

	// Rework the same history from scratch. The stale seed must not feed the
	// partition heads, or the oldest rows would get returns computed against
	// the newest prior close.
	state, err := newRunner(t, dirs, watermark.ColdStartStore{}, runAt(10), true).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Records, 12)

	var aapl []int
	for i, r := range state.Records {
		if r.Symbol == "AAPL" {
			aapl = append(aapl, i)
		}
	}
	require.Len(t, aapl, 6)

	head := state.Records[aapl[0]]
	assert.False(t, head.HasPrevClose, "reworked history starts cold")
	assert.Equal(t, 0.0, head.DailyReturn)

	// Windows are batch-local again: MA5 populates at row 5, not earlier.
	var enrichedAAPL []int
	for i, r := range state.Enriched {
		if r.Symbol == "AAPL" {
			enrichedAAPL = append(enrichedAAPL, i)
		}
	}
	require.Len(t, enrichedAAPL, 6)
	assert.Equal(t, 0.0, state.Enriched[enrichedAAPL[3]].MovingAvg5)
	assert.InDelta(t, 102.0, state.Enriched[enrichedAAPL[4]].MovingAvg5, 1e-12)

	// The rework persisted a seed rebuilt from its own history.
	seed, err := enrich.LoadWindowState(dirs.seedFile)
	require.NoError(t, err)
	last, ok := seed.LastClose("AAPL")
	require.True(t, ok)
	assert.Equal(t, 105.0, last)
}

func TestRunCancelledContext(t *testing.T) {
	dirs := newTestDirs(t)
	writeRawBatch(t, dirs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(t, dirs, watermark.ColdStartStore{}, runAt(9), false).Run(ctx)
	assert.Error(t, err)
}
