// Package window resolves the three query modes (fixed dates, rolling live
// window, bounded range) into the UTC calendar-day tokens the upstream feed
// understands, plus the trim bounds applied after fetch. The feed is
// day-granular, so sub-day windows over-fetch whole days and trim client-side.
package window

import (
	"time"

	"github.com/s53zo/RBN-spots-analysis-tool/spot"
)

const dayToken = "20060102"

// DefaultLiveHours is used when a requested live window size is not one of
// the allowed values.
const DefaultLiveHours = 24

// MaxSkimmerHours caps the bounded-range mode duration.
const MaxSkimmerHours = 48

var allowedLiveHours = map[int]bool{1: true, 6: true, 12: true, 24: true, 48: true}

// ValidLiveHours reports whether hours is one of the supported live window
// sizes.
func ValidLiveHours(hours int) bool {
	return allowedLiveHours[hours]
}

// Window is a resolved set of fetch days plus the post-fetch trim interval.
// A zero From or To leaves that side unbounded.
type Window struct {
	Days []string // YYYYMMDD tokens, ascending
	From time.Time
	To   time.Time
}

// Contains reports whether an epoch-milliseconds timestamp survives the trim.
// Both bounds are inclusive.
func (w Window) Contains(tsMs int64) bool {
	if !w.From.IsZero() && tsMs < w.From.UnixMilli() {
		return false
	}
	if !w.To.IsZero() && tsMs > w.To.UnixMilli() {
		return false
	}
	return true
}

// FixedDates resolves the explicit-dates mode: the day tokens are exactly the
// supplied ISO dates and no trimming is needed beyond what the feed returns.
func FixedDates(dates []string) Window {
	return Window{Days: spot.DayTokensFromISO(dates)}
}

// Live resolves a rolling window ending now. Sizes outside {1,6,12,24,48}
// hours silently fall back to 24h. The day list spans every UTC calendar day
// from the cutoff's day through now's day, so windows straddling UTC midnight
// fetch two (or for 48h up to three) days; spots before the cutoff are
// trimmed after fetch.
func Live(hours int, now time.Time) Window {
	if !allowedLiveHours[hours] {
		hours = DefaultLiveHours
	}
	now = now.UTC()
	cutoff := now.Add(-time.Duration(hours) * time.Hour)
	return Window{
		Days: daysSpanning(cutoff, now),
		From: cutoff,
	}
}

// Skimmer resolves the bounded-range comparison mode. Reversed bounds are
// swapped; the duration is clamped to MaxSkimmerHours by shrinking the end
// instant; the trim keeps spots inside [from, to] inclusive.
func Skimmer(from, to time.Time) Window {
	from, to = from.UTC(), to.UTC()
	if from.After(to) {
		from, to = to, from
	}
	if max := time.Duration(MaxSkimmerHours) * time.Hour; to.Sub(from) > max {
		to = from.Add(max)
	}
	return Window{
		Days: daysSpanning(from, to),
		From: from,
		To:   to,
	}
}

// daysSpanning lists every UTC calendar day the [from, to] interval touches.
func daysSpanning(from, to time.Time) []string {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dayToken))
	}
	return days
}
