// Package orchestrator fans fetches out across up to four callsign slots and,
// in windowed modes, across the UTC days inside each slot. Per-day results are
// merged commutatively, trimmed to the requested window, and returned as one
// terminal SlotResult per slot; a slot failure never aborts the others.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/s53zo/RBN-spots-analysis-tool/rbnapi"
	"github.com/s53zo/RBN-spots-analysis-tool/spot"
	"github.com/s53zo/RBN-spots-analysis-tool/stats"
	"github.com/s53zo/RBN-spots-analysis-tool/window"
)

// MaxSlots bounds one run: one primary callsign plus three comparisons.
const MaxSlots = 4

var (
	slotIDs    = [MaxSlots]string{"A", "B", "C", "D"}
	slotLabels = [MaxSlots]string{"Primary", "Compare 1", "Compare 2", "Compare 3"}
)

// Status is the terminal state of one slot. A slot never transitions after the
// run returns.
type Status string

const (
	StatusReady       Status = "ready"
	StatusRateLimited Status = "rate_limited"
	StatusError       Status = "error"
)

// Fetcher is the single network dependency of a run.
type Fetcher interface {
	FetchSpots(ctx context.Context, call string, days []string) (*rbnapi.Payload, error)
}

// Request describes one orchestration run.
type Request struct {
	// Calls holds the slot callsigns in order: primary first, then up to
	// three comparisons. Blank entries are skipped; at most MaxSlots are
	// used.
	Calls  []string
	Window window.Window
	// PerDay selects one fetch per day token instead of one fetch for the
	// whole set. Live and bounded-range modes use it so a single slow or
	// failing day cannot sink the slot.
	PerDay bool
}

// SlotResult is the immutable outcome of fetching one callsign.
type SlotResult struct {
	Slot  string // A..D
	Label string // Primary, Compare 1..3
	Call  string

	Status     Status
	Error      string        // set iff Status != StatusReady
	RetryAfter time.Duration // set iff Status == StatusRateLimited

	RequestedDays []string
	// FailedDays lists per-day failures as "YYYYMMDD: message" for slots
	// that stayed ready on partial data.
	FailedDays []string

	// SpotsOfUs are receptions of this call by other stations; SpotsByUs
	// are receptions logged by this call's own receiver.
	SpotsOfUs []*spot.Spot
	SpotsByUs []*spot.Spot

	ScannedTotal  int // upstream-reported scan volume, summed across days
	TotalOfUs     int // re-derived from the trimmed array
	TotalByUs     int
	CapPerSide    int
	TruncatedOfUs bool
	TruncatedByUs bool
	NotFound      bool
}

// HasData reports whether the slot carries at least one spot.
func (s *SlotResult) HasData() bool {
	return s != nil && (len(s.SpotsOfUs) > 0 || len(s.SpotsByUs) > 0)
}

// DataKey is the identity of this slot's dataset: downstream index caches
// rebuild only when it changes. Record count stands in for deep comparison.
func (s *SlotResult) DataKey() string {
	days := make([]string, len(s.RequestedDays))
	copy(days, s.RequestedDays)
	sort.Strings(days)
	return fmt.Sprintf("%s|%v|%d", s.Call, days, len(s.SpotsOfUs)+len(s.SpotsByUs))
}

// RunResult is the outcome of one orchestration run. Token increases
// monotonically across runs so callers can discard results from a superseded
// run.
type RunResult struct {
	Token         uint64
	Slots         []*SlotResult
	RequestedDays []string
	From, To      time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
}

// AnyReady reports whether at least one slot finished ready.
func (r *RunResult) AnyReady() bool {
	for _, s := range r.Slots {
		if s.Status == StatusReady {
			return true
		}
	}
	return false
}

// AnyData reports whether at least one slot carries spots.
func (r *RunResult) AnyData() bool {
	for _, s := range r.Slots {
		if s.HasData() {
			return true
		}
	}
	return false
}

// AnyFailed reports whether at least one slot ended rate-limited or errored.
func (r *RunResult) AnyFailed() bool {
	for _, s := range r.Slots {
		if s.Status != StatusReady {
			return true
		}
	}
	return false
}

// RateLimitedWait returns the longest retry hint across rate-limited slots,
// or zero when none is rate-limited.
func (r *RunResult) RateLimitedWait() time.Duration {
	var wait time.Duration
	for _, s := range r.Slots {
		if s.Status == StatusRateLimited && s.RetryAfter > wait {
			wait = s.RetryAfter
		}
	}
	return wait
}

// Orchestrator runs fetches against one Fetcher. Safe for concurrent runs;
// each run gets its own token and result objects.
type Orchestrator struct {
	fetcher Fetcher
	runSeq  atomic.Uint64
	tracker *stats.Tracker
}

func New(f Fetcher) *Orchestrator {
	return &Orchestrator{fetcher: f}
}

// SetStats attaches an optional tracker fed with per-slot outcomes and
// per-band spot counts.
func (o *Orchestrator) SetStats(t *stats.Tracker) {
	o.tracker = t
}

// Run executes one orchestration pass. It always returns a RunResult; fetch
// failures are folded into per-slot status, never returned as an error. Only
// a nil fetcher or an empty call list is a caller defect.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*RunResult, error) {
	if o.fetcher == nil {
		return nil, errors.New("orchestrator: no fetcher configured")
	}
	slots := activeSlots(req.Calls)
	if len(slots) == 0 {
		return nil, errors.New("orchestrator: no callsigns to fetch")
	}

	result := &RunResult{
		Token:         o.runSeq.Add(1),
		Slots:         slots,
		RequestedDays: req.Window.Days,
		From:          req.Window.From,
		To:            req.Window.To,
		StartedAt:     time.Now().UTC(),
	}

	var g errgroup.Group
	for _, s := range slots {
		s := s
		g.Go(func() error {
			o.runSlot(ctx, req, s)
			return nil
		})
	}
	g.Wait()

	if o.tracker != nil {
		o.tracker.AddRun()
	}
	result.FinishedAt = time.Now().UTC()
	return result, nil
}

// activeSlots assigns slot IDs to the non-blank normalized callsigns, in
// order, up to MaxSlots.
func activeSlots(calls []string) []*SlotResult {
	var slots []*SlotResult
	for _, raw := range calls {
		call := spot.NormalizeCall(raw)
		if call == "" {
			continue
		}
		i := len(slots)
		slots = append(slots, &SlotResult{
			Slot:  slotIDs[i],
			Label: slotLabels[i],
			Call:  call,
		})
		if len(slots) == MaxSlots {
			break
		}
	}
	return slots
}

func (o *Orchestrator) runSlot(ctx context.Context, req Request, s *SlotResult) {
	s.RequestedDays = req.Window.Days

	var payloads []*rbnapi.Payload
	var failures []dayFailure

	if req.PerDay && len(req.Window.Days) > 1 {
		payloads, failures = o.fetchPerDay(ctx, s.Call, req.Window.Days)
	} else {
		p, err := o.fetcher.FetchSpots(ctx, s.Call, req.Window.Days)
		if err != nil {
			failures = append(failures, dayFailure{err: err})
		} else {
			payloads = append(payloads, p)
		}
	}

	if len(payloads) == 0 {
		// Every fetch failed: the first failure decides the slot
		// classification.
		first := failures[0].err
		s.Status, s.Error, s.RetryAfter = classify(first)
		log.Printf("orchestrator: slot %s (%s) failed: %v", s.Slot, s.Call, first)
		o.record(s, 0)
		return
	}

	for _, f := range failures {
		s.FailedDays = append(s.FailedDays, f.String())
	}
	sort.Strings(s.FailedDays)

	mergePayloads(s, payloads)
	trimmed := trim(s, req.Window)
	s.Status = StatusReady
	o.record(s, trimmed)
}

// record feeds the optional stats tracker after a slot reaches its terminal
// state.
func (o *Orchestrator) record(s *SlotResult, trimmed int) {
	if o.tracker == nil {
		return
	}
	o.tracker.IncrementOutcome(string(s.Status))
	for _, sp := range s.SpotsOfUs {
		o.tracker.IncrementBand(sp.Band)
	}
	for _, sp := range s.SpotsByUs {
		o.tracker.IncrementBand(sp.Band)
	}
	o.tracker.AddSlot(len(s.SpotsOfUs)+len(s.SpotsByUs), trimmed)
}

type dayFailure struct {
	day string
	err error
}

func (f dayFailure) String() string {
	if f.day == "" {
		return f.err.Error()
	}
	return f.day + ": " + f.err.Error()
}

// fetchPerDay issues one fetch per day token concurrently. Failures are
// captured per day, never propagated through the group.
func (o *Orchestrator) fetchPerDay(ctx context.Context, call string, days []string) ([]*rbnapi.Payload, []dayFailure) {
	var (
		mu       sync.Mutex
		payloads []*rbnapi.Payload
		failures []dayFailure
	)
	var g errgroup.Group
	for _, day := range days {
		day := day
		g.Go(func() error {
			p, err := o.fetcher.FetchSpots(ctx, call, []string{day})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, dayFailure{day: day, err: err})
			} else {
				payloads = append(payloads, p)
			}
			return nil
		})
	}
	g.Wait()
	return payloads, failures
}

// mergePayloads folds per-day payloads into the slot: totals summed, flags
// OR'd, spot arrays normalized and concatenated. Receptions that hash
// identically (same spotter, heard call, minute, band) are dropped so spots
// straddling a day boundary are not double counted. All operations are
// commutative, so per-day arrival order cannot change the outcome.
func mergePayloads(s *SlotResult, payloads []*rbnapi.Payload) {
	seenOf := make(map[uint64]bool)
	seenBy := make(map[uint64]bool)
	for _, p := range payloads {
		total, _, _ := p.Counts()
		s.ScannedTotal += total
		if p.CapPerSide != nil && *p.CapPerSide > s.CapPerSide {
			s.CapPerSide = *p.CapPerSide
		}
		s.TruncatedOfUs = s.TruncatedOfUs || p.TruncatedOfUs
		s.TruncatedByUs = s.TruncatedByUs || p.TruncatedByUs
		s.NotFound = s.NotFound || p.NotFound
		s.SpotsOfUs = appendNormalized(s.SpotsOfUs, p.OfUsSpots, seenOf)
		s.SpotsByUs = appendNormalized(s.SpotsByUs, p.ByUsSpots, seenBy)
	}
	// Stable chronological order regardless of which day arrived first.
	sortByTime(s.SpotsOfUs)
	sortByTime(s.SpotsByUs)
}

func appendNormalized(dst []*spot.Spot, wire []spot.WireSpot, seen map[uint64]bool) []*spot.Spot {
	for _, w := range wire {
		sp := spot.Normalize(w)
		if sp == nil {
			continue
		}
		h := sp.Hash64()
		if seen[h] {
			continue
		}
		seen[h] = true
		dst = append(dst, sp)
	}
	return dst
}

func sortByTime(spots []*spot.Spot) {
	sort.SliceStable(spots, func(i, j int) bool {
		return spots[i].TimestampMs < spots[j].TimestampMs
	})
}

// trim drops spots outside the window bounds and re-derives the per-side
// totals from what survived. Upstream totals are not trusted after trimming.
// Returns the number of spots dropped.
func trim(s *SlotResult, w window.Window) int {
	before := len(s.SpotsOfUs) + len(s.SpotsByUs)
	s.SpotsOfUs = keepContained(s.SpotsOfUs, w)
	s.SpotsByUs = keepContained(s.SpotsByUs, w)
	s.TotalOfUs = len(s.SpotsOfUs)
	s.TotalByUs = len(s.SpotsByUs)
	return before - s.TotalOfUs - s.TotalByUs
}

func keepContained(spots []*spot.Spot, w window.Window) []*spot.Spot {
	kept := spots[:0]
	for _, sp := range spots {
		if w.Contains(sp.TimestampMs) {
			kept = append(kept, sp)
		}
	}
	return kept
}

// classify maps a fetch error onto the slot taxonomy.
func classify(err error) (Status, string, time.Duration) {
	var rl *rbnapi.RateLimitError
	if errors.As(err, &rl) {
		return StatusRateLimited, err.Error(), rl.RetryAfter
	}
	return StatusError, err.Error(), 0
}
