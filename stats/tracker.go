// Package stats tracks per-outcome and per-band counters across orchestration
// runs for periodic console output.
package stats

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks fetch and spot statistics across runs. Counters live in
// sync.Map + atomic.Uint64 so per-spot increments don't fight over a mutex.
type Tracker struct {
	outcomeCounts sync.Map // status -> *atomic.Uint64
	bandCounts    sync.Map // band -> *atomic.Uint64
	start         atomic.Int64
	runs          atomic.Uint64
	fetchedSpots  atomic.Uint64
	trimmedSpots  atomic.Uint64
}

// NewTracker creates a new stats tracker
func NewTracker() *Tracker {
	t := &Tracker{}
	t.start.Store(time.Now().UnixNano())
	return t
}

// IncrementOutcome increases the count for a slot outcome (ready,
// rate_limited, error).
func (t *Tracker) IncrementOutcome(status string) {
	incrementCounter(&t.outcomeCounts, status)
}

// IncrementBand increases the spot count for a band token.
func (t *Tracker) IncrementBand(band string) {
	if band == "" {
		band = "?"
	}
	incrementCounter(&t.bandCounts, band)
}

// AddRun records one orchestration run.
func (t *Tracker) AddRun() {
	t.runs.Add(1)
}

// AddSlot records one finished slot's surviving and trimmed spot counts.
func (t *Tracker) AddSlot(kept, trimmed int) {
	if kept > 0 {
		t.fetchedSpots.Add(uint64(kept))
	}
	if trimmed > 0 {
		t.trimmedSpots.Add(uint64(trimmed))
	}
}

// GetOutcomeCounts returns a copy of the slot outcome counts.
func (t *Tracker) GetOutcomeCounts() map[string]uint64 {
	return copyCounts(&t.outcomeCounts)
}

// GetBandCounts returns a copy of the per-band spot counts.
func (t *Tracker) GetBandCounts() map[string]uint64 {
	return copyCounts(&t.bandCounts)
}

// Runs returns the number of orchestration runs recorded.
func (t *Tracker) Runs() uint64 {
	return t.runs.Load()
}

// Spots returns the cumulative kept and trimmed spot counts.
func (t *Tracker) Spots() (kept, trimmed uint64) {
	return t.fetchedSpots.Load(), t.trimmedSpots.Load()
}

// GetUptime returns how long the tracker has been running
func (t *Tracker) GetUptime() time.Duration {
	start := t.start.Load()
	return time.Since(time.Unix(0, start))
}

// Reset resets all counters
func (t *Tracker) Reset() {
	clearCounts(&t.outcomeCounts)
	clearCounts(&t.bandCounts)
	t.runs.Store(0)
	t.fetchedSpots.Store(0)
	t.trimmedSpots.Store(0)
	t.start.Store(time.Now().UnixNano())
}

// SnapshotLines returns human-readable stats ready for console display.
func (t *Tracker) SnapshotLines() []string {
	kept, trimmed := t.Spots()
	lines := make([]string, 0, 3)
	lines = append(lines, fmt.Sprintf("Runs: %d (%d spots kept, %d trimmed)", t.Runs(), kept, trimmed))
	lines = append(lines, formatMapCounts("Slots by outcome", &t.outcomeCounts))
	lines = append(lines, formatMapCounts("Spots by band", &t.bandCounts))
	return lines
}

func copyCounts(m *sync.Map) map[string]uint64 {
	counts := make(map[string]uint64)
	m.Range(func(key, value any) bool {
		counts[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return counts
}

func clearCounts(m *sync.Map) {
	m.Range(func(key, _ any) bool {
		m.Delete(key)
		return true
	})
}

func formatMapCounts(label string, counts *sync.Map) string {
	var builder strings.Builder
	builder.WriteString(label)
	builder.WriteString(": ")
	first := true
	counts.Range(func(key, value any) bool {
		if !first {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%s=%d", key.(string), value.(*atomic.Uint64).Load())
		first = false
		return true
	})
	if first {
		builder.WriteString("(none)")
	}
	return builder.String()
}

func incrementCounter(m *sync.Map, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if value, ok := m.Load(key); ok {
		value.(*atomic.Uint64).Add(1)
		return
	}
	counter := &atomic.Uint64{}
	actual, loaded := m.LoadOrStore(key, counter)
	if loaded {
		actual.(*atomic.Uint64).Add(1)
		return
	}
	counter.Add(1)
}
