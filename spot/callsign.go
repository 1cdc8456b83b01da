package spot

import "strings"

// NormalizeCall uppercases and trims a callsign. The empty string stays empty.
func NormalizeCall(call string) string {
	return strings.ToUpper(strings.TrimSpace(call))
}

// SpotterBase returns the grouping-key form of a spotter callsign: normalized
// with any trailing numeric receiver suffix ("-2") removed so secondary
// receivers of the same skimmer collapse into one station. The raw form is
// kept separately on the Spot for display.
func SpotterBase(call string) string {
	norm := NormalizeCall(call)
	if norm == "" {
		return ""
	}
	idx := strings.LastIndexByte(norm, '-')
	if idx <= 0 || idx == len(norm)-1 {
		return norm
	}
	suffix := norm[idx+1:]
	for i := 0; i < len(suffix); i++ {
		if suffix[i] < '0' || suffix[i] > '9' {
			return norm
		}
	}
	return norm[:idx]
}

// DayTokensFromISO converts ISO calendar dates ("2026-02-11") into the
// upstream feed's compact YYYYMMDD tokens, silently dropping anything that is
// not a well-formed date string.
func DayTokensFromISO(dates []string) []string {
	out := make([]string, 0, len(dates))
	for _, date := range dates {
		d := strings.TrimSpace(date)
		if !isISODate(d) {
			continue
		}
		out = append(out, strings.ReplaceAll(d, "-", ""))
	}
	return out
}

func isISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range []byte(s) {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
