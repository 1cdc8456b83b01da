package compare

import "sort"

// DefaultMinPerBand is the floor for the proportional point-budget split: no
// band is rendered with fewer points than this merely because it is small.
const DefaultMinPerBand = 200

// BandBudget is a band's slice of the total point budget.
type BandBudget struct {
	Band  string
	Count int
}

// ProportionalCaps splits capTotal points across bands proportionally to each
// band's share of the total count. Each band is floored at minPerBand (or its
// own count when smaller) and capped at its own count; when the floors push
// the sum over the budget, the largest allocations are reduced first, never
// below the floor. Input order is preserved. A non-positive minPerBand
// selects DefaultMinPerBand; a non-positive capTotal, or a total already
// inside the budget, returns every band uncapped.
func ProportionalCaps(bands []BandBudget, capTotal, minPerBand int) []BandBudget {
	if minPerBand <= 0 {
		minPerBand = DefaultMinPerBand
	}
	total := 0
	for _, b := range bands {
		if b.Count > 0 {
			total += b.Count
		}
	}

	out := make([]BandBudget, len(bands))
	copy(out, bands)
	if capTotal <= 0 || total <= capTotal {
		return out
	}

	floors := make([]int, len(out))
	sum := 0
	for i, b := range out {
		count := b.Count
		if count < 0 {
			count = 0
		}
		floor := minPerBand
		if count < floor {
			floor = count
		}
		share := capTotal * count / total
		alloc := share
		if alloc < floor {
			alloc = floor
		}
		if alloc > count {
			alloc = count
		}
		floors[i] = floor
		out[i].Count = alloc
		sum += alloc
	}

	if sum > capTotal {
		// Reduce the largest allocations first, down to their floors.
		order := make([]int, len(out))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return out[order[a]].Count > out[order[b]].Count
		})
		for _, i := range order {
			if sum <= capTotal {
				break
			}
			next := out[i].Count - (sum - capTotal)
			if next < floors[i] {
				next = floors[i]
			}
			sum -= out[i].Count - next
			out[i].Count = next
		}
	}
	return out
}
