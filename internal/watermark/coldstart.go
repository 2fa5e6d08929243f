package watermark

import (
	"context"
	"time"
)

// ColdStartStore is a Store that always reports no prior state. It backs
// full-rework runs, where the entire available history is reprocessed
// regardless of what the staging store has seen.
type ColdStartStore struct{}

// MaxDateKey implements Store
func (ColdStartStore) MaxDateKey(ctx context.Context) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
