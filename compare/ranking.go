package compare

import (
	"fmt"
	"sort"

	"github.com/s53zo/RBN-spots-analysis-tool/orchestrator"
	"github.com/s53zo/RBN-spots-analysis-tool/spot"
)

// Metric selects the ranking lens.
type Metric string

const (
	// MetricCount ranks spotters by raw reception volume: the default,
	// because the most active station is usually the most representative.
	MetricCount Metric = "count"
	// MetricP75 ranks by 75th-percentile SNR, an alternate lens for best
	// observed signal quality; rare lucky openings do not dominate it.
	MetricP75 Metric = "p75"
)

// DefaultMinSamples is the minimum receptions a spotter needs before its P75
// value is considered meaningful.
const DefaultMinSamples = 4

// RankEntry is one spotter in a ranking. P75SNR is meaningful only when
// HasP75 is set.
type RankEntry struct {
	Spotter string
	Count   int
	P75SNR  float64
	HasP75  bool
}

// Ranking is a continent-grouped spotter ranking for one slot and band
// filter.
type Ranking struct {
	DataKey string
	Slot    string
	Band    string // canonical token, "" = all bands
	Metric  Metric

	ByContinent map[string][]RankEntry
}

// Continents lists the continents present in this ranking, in display order.
func (r *Ranking) Continents() []string {
	out := make([]string, 0, len(r.ByContinent))
	for c := range r.ByContinent {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return ContinentRank(out[i]) < ContinentRank(out[j]) })
	return out
}

// RankByCount serves the count ranking for a slot under an optional band
// filter, cached per (slot, band) until the slot's data identity changes.
func (e *Engine) RankByCount(s *orchestrator.SlotResult, band string) *Ranking {
	return e.rank(s, band, MetricCount, 0)
}

// RankByP75 serves the signal-quality ranking: spotters with at least
// minSamples receptions on the filtered bands, carrying their P75 SNR.
// A non-positive minSamples selects DefaultMinSamples.
func (e *Engine) RankByP75(s *orchestrator.SlotResult, band string, minSamples int) *Ranking {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return e.rank(s, band, MetricP75, minSamples)
}

func (e *Engine) rank(s *orchestrator.SlotResult, band string, metric Metric, minSamples int) *Ranking {
	idx := e.Index(s)
	if idx == nil {
		return nil
	}
	band = spot.NormalizeBandToken(band)
	cacheKey := fmt.Sprintf("%s|%s|%s|%d", idx.Slot, band, metric, minSamples)

	e.mu.Lock()
	if cached := e.rankings[cacheKey]; cached != nil && cached.DataKey == idx.DataKey {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	r := buildRanking(idx, band, metric, minSamples)

	e.mu.Lock()
	e.rankings[cacheKey] = r
	e.mu.Unlock()
	return r
}

func buildRanking(idx *SlotIndex, band string, metric Metric, minSamples int) *Ranking {
	r := &Ranking{
		DataKey:     idx.DataKey,
		Slot:        idx.Slot,
		Band:        band,
		Metric:      metric,
		ByContinent: make(map[string][]RankEntry),
	}
	for _, entry := range idx.BySpotter {
		count := entry.Total
		if band != "" {
			count = entry.BandCounts[band]
		}
		if count == 0 {
			continue
		}
		re := RankEntry{Spotter: entry.Spotter, Count: count}
		if metric == MetricP75 {
			snrs := entry.snrSamples(band)
			if len(snrs) < minSamples {
				continue
			}
			re.P75SNR = percentile75(snrs)
			re.HasP75 = true
		}
		continent := entry.Continent
		if continent == "" {
			continent = "N/A"
		}
		r.ByContinent[continent] = append(r.ByContinent[continent], re)
	}

	for continent, list := range r.ByContinent {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			if metric == MetricP75 && list[i].P75SNR != list[j].P75SNR {
				return list[i].P75SNR > list[j].P75SNR
			}
			return list[i].Spotter < list[j].Spotter
		})
		r.ByContinent[continent] = list
	}
	return r
}

// snrSamples collects the SNR halves of the flat pairs for the filtered band,
// or across all bands when the filter is empty.
func (e *SpotterEntry) snrSamples(band string) []float64 {
	var snrs []float64
	collect := func(pairs []float64) {
		for i := 1; i < len(pairs); i += 2 {
			snrs = append(snrs, pairs[i])
		}
	}
	if band != "" {
		collect(e.ByBand[band])
	} else {
		for _, pairs := range e.ByBand {
			collect(pairs)
		}
	}
	return snrs
}

// percentile75 returns the value at floor(0.75 * (n-1)) of the sorted
// samples.
func percentile75(samples []float64) float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return sorted[3*(len(sorted)-1)/4]
}
