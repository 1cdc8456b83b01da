// Package compare builds the queryable per-slot spotter index and serves
// continent-grouped rankings plus deterministic sampling for visualization
// consumers. Index and ranking results are cached per slot and invalidated by
// the slot's data identity key, never partially updated.
package compare

import (
	"sync"

	"github.com/s53zo/RBN-spots-analysis-tool/cty"
	"github.com/s53zo/RBN-spots-analysis-tool/orchestrator"
	"github.com/s53zo/RBN-spots-analysis-tool/spot"
)

// SpotterEntry aggregates one spotter station's receptions of the slot call.
// ByBand stores flat [timestamp, snr, timestamp, snr, ...] pairs; the layout
// keeps paired samples compact for chart consumers.
type SpotterEntry struct {
	Spotter    string
	Continent  string
	Total      int
	BandCounts map[string]int
	ByBand     map[string][]float64

	MinSNR float64
	MaxSNR float64
	HasSNR bool
}

// SlotIndex is the derived view over one ready slot, keyed by grouping-form
// spotter callsign.
type SlotIndex struct {
	DataKey   string
	Slot      string
	Call      string
	BySpotter map[string]*SpotterEntry
}

// Bands lists every band present in the index, in display order.
func (idx *SlotIndex) Bands() []string {
	seen := make(map[string]bool)
	var bands []string
	for _, e := range idx.BySpotter {
		for band := range e.BandCounts {
			if !seen[band] {
				seen[band] = true
				bands = append(bands, band)
			}
		}
	}
	return spot.SortBands(bands)
}

// buildIndex groups a ready slot's receptions by spotter and band. Spots
// without a usable SNR are skipped: the index exists to answer signal-quality
// queries and a pair without its second half would poison every consumer.
func buildIndex(s *orchestrator.SlotResult, resolver *cty.Resolver) *SlotIndex {
	idx := &SlotIndex{
		DataKey:   s.DataKey(),
		Slot:      s.Slot,
		Call:      s.Call,
		BySpotter: make(map[string]*SpotterEntry),
	}
	for _, sp := range s.SpotsOfUs {
		if sp == nil || sp.Spotter == "" || !sp.HasSNR {
			continue
		}
		entry := idx.BySpotter[sp.Spotter]
		if entry == nil {
			entry = &SpotterEntry{
				Spotter:    sp.Spotter,
				Continent:  resolver.ContinentForCall(sp.Spotter),
				BandCounts: make(map[string]int),
				ByBand:     make(map[string][]float64),
			}
			idx.BySpotter[sp.Spotter] = entry
		}
		entry.Total++
		entry.BandCounts[sp.Band]++
		entry.ByBand[sp.Band] = append(entry.ByBand[sp.Band],
			float64(sp.TimestampMs), sp.SNRdB)
		if !entry.HasSNR || sp.SNRdB < entry.MinSNR {
			entry.MinSNR = sp.SNRdB
		}
		if !entry.HasSNR || sp.SNRdB > entry.MaxSNR {
			entry.MaxSNR = sp.SNRdB
		}
		entry.HasSNR = true
	}
	return idx
}

// Engine owns the per-slot index and ranking caches. Safe for concurrent use.
type Engine struct {
	resolver *cty.Resolver

	mu       sync.Mutex
	indexes  map[string]*SlotIndex // slot ID -> index
	rankings map[string]*Ranking   // slot|band|metric|threshold -> ranking
}

func NewEngine(resolver *cty.Resolver) *Engine {
	return &Engine{
		resolver: resolver,
		indexes:  make(map[string]*SlotIndex),
		rankings: make(map[string]*Ranking),
	}
}

// Index returns the (possibly cached) index for a ready slot, nil otherwise.
// The cache is served only while the slot's data identity is unchanged; a new
// identity rebuilds the index and drops the slot's ranking cache with it.
func (e *Engine) Index(s *orchestrator.SlotResult) *SlotIndex {
	if s == nil || s.Status != orchestrator.StatusReady {
		return nil
	}
	key := s.DataKey()

	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.indexes[s.Slot]; idx != nil && idx.DataKey == key {
		return idx
	}
	idx := buildIndex(s, e.resolver)
	e.indexes[s.Slot] = idx
	for k, r := range e.rankings {
		if r.Slot == s.Slot {
			delete(e.rankings, k)
		}
	}
	return idx
}
