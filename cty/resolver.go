package cty

import (
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/s53zo/RBN-spots-analysis-tool/spot"
)

// GeoMeta is the resolved geography for one callsign. Zone values of 0 mean
// unknown or invalid; Continent is "" when nothing could be resolved (always
// the case in strict mode without a database match).
type GeoMeta struct {
	Call      string
	Matched   bool // true when a database entry matched (not a regex fallback)
	Continent string
	CQZone    int
	ITUZone   int
	DXCC      string
}

// fallbackHint maps a callsign block regex to a continent, used only when the
// database has no answer and the caller did not ask for strict resolution.
type fallbackHint struct {
	continent string
	re        *regexp.Regexp
}

// fallbackHints covers common national callsign block assignments. Order
// matters: first match wins.
var fallbackHints = []fallbackHint{
	{"NA", regexp.MustCompile(`^(K|N|W|A[A-L]|V[A-G]|VE|XE|KP|CO|CM|C6|V3|TG|TI|HP|YN|ZF|8P)`)},
	{"SA", regexp.MustCompile(`^(LU|LW|AY|AZ|CX|CE|OA|YV|HK|PY|PP|PR|PU|P[Q-U]|CP|ZP|HC|FY|P4|PJ)`)},
	{"EU", regexp.MustCompile(`^(9A|9H|CT|CU|DL|DA|DB|DC|DD|DE|DF|DG|DH|DJ|DK|DM|DN|DO|F|G|M|2E|EI|GW|GI|GM|GD|I|IS|IZ|OE|OK|OM|O[N-W]|PA|PB|PC|PD|PE|PF|PG|PH|PI|S5|S[0-9]|SP|SQ|SR|SM|LA|LB|LC|LY|YL|ES|ER|HA|HB|HE|HF|HG|LZ|YO|YU|E7|Z3|SV|SX|OH|OJ|UA[1-6]|R[1-6])`)},
	{"AF", regexp.MustCompile(`^(ZS|ZT|ZU|5[H-NR]|7X|CN|3V|SU|9J|9Q|5A|5V|TU|D2|ET|TR|TT|V5|A2|C5|C9)`)},
	{"AS", regexp.MustCompile(`^(J[A-S]|JT|BY|B[A-IL-R]|BV|HL|DS|DT|VU|4X|4J|4L|UN|EX|EY|EP|A[4-9]|HZ|DU|HS|E2|VR)`)},
	{"OC", regexp.MustCompile(`^(VK|AX|ZL|E5|Y[B-H]|9M6|P2|H4|A3|KH[2-9]|FO|FK)`)},
}

const memoCap = 10000

// Resolver answers callsign geography queries over a parsed prefix table. It
// is safe for concurrent use; the memo is a read-or-insert map cleared in
// full when it outgrows its cap.
type Resolver struct {
	entries []PrefixEntry

	mu   sync.Mutex
	memo map[string]*PrefixEntry // nil value records a miss

	totalLookups atomic.Uint64
	memoHits     atomic.Uint64
}

// NewResolver wraps already-sorted entries from ParseCTYDat (or the plist
// loader) in a resolver.
func NewResolver(entries []PrefixEntry) *Resolver {
	return &Resolver{
		entries: entries,
		memo:    make(map[string]*PrefixEntry, 256),
	}
}

// EntryCount returns the number of prefix rules loaded.
func (r *Resolver) EntryCount() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Lookup returns the most specific database entry for a callsign: exact
// entries by full-string equality first, then prefix entries longest-first.
// Misses are memoized alongside hits so repeated unknown calls stay cheap.
func (r *Resolver) Lookup(call string) (*PrefixEntry, bool) {
	if r == nil || len(r.entries) == 0 {
		return nil, false
	}
	key := spot.NormalizeCall(call)
	if key == "" {
		return nil, false
	}
	r.totalLookups.Add(1)

	r.mu.Lock()
	if entry, ok := r.memo[key]; ok {
		r.mu.Unlock()
		r.memoHits.Add(1)
		return entry, entry != nil
	}
	r.mu.Unlock()

	var found *PrefixEntry
	for i := range r.entries {
		e := &r.entries[i]
		if e.Exact {
			if key == e.Prefix {
				found = e
				break
			}
		} else if strings.HasPrefix(key, e.Prefix) {
			found = e
			break
		}
	}

	r.mu.Lock()
	if len(r.memo) >= memoCap {
		r.memo = make(map[string]*PrefixEntry, 256)
	}
	r.memo[key] = found
	r.mu.Unlock()
	return found, found != nil
}

// Resolve returns the geography for a callsign. In strict mode an unmatched
// call gets an empty continent; otherwise the regex fallback table supplies a
// best-guess continent.
func (r *Resolver) Resolve(call string, strict bool) GeoMeta {
	normalized := spot.NormalizeCall(call)
	if normalized == "" {
		return GeoMeta{}
	}

	entry, matched := r.Lookup(normalized)
	meta := GeoMeta{Call: normalized, Matched: matched}
	if entry != nil {
		meta.Continent = NormalizeContinent(entry.Continent)
		meta.CQZone = validZone(entry.CQZone)
		meta.ITUZone = validZone(entry.ITUZone)
		meta.DXCC = strings.TrimSpace(entry.Country)
	}
	if meta.Continent == "" && !strict {
		if hint := FallbackContinent(normalized); hint != "N/A" {
			meta.Continent = hint
		}
	}
	return meta
}

// ContinentForCall returns the continent for a callsign, falling back to the
// regex hint table; "N/A" when nothing matches.
func (r *Resolver) ContinentForCall(call string) string {
	if entry, ok := r.Lookup(call); ok {
		if continent := NormalizeContinent(entry.Continent); continent != "" {
			return continent
		}
	}
	return FallbackContinent(call)
}

// Metrics reports lookup counters for diagnostics.
func (r *Resolver) Metrics() (lookups, memoHits uint64) {
	if r == nil {
		return 0, 0
	}
	return r.totalLookups.Load(), r.memoHits.Load()
}

// FallbackContinent infers a continent from callsign block regexes alone,
// returning "N/A" when no hint matches.
func FallbackContinent(call string) string {
	key := spot.NormalizeCall(call)
	if key == "" {
		return "N/A"
	}
	for _, hint := range fallbackHints {
		if hint.re.MatchString(key) {
			return hint.continent
		}
	}
	return "N/A"
}

// NormalizeContinent folds a continent code or name to one of NA/SA/EU/AF/
// AS/OC, or "" when unrecognizable.
func NormalizeContinent(code string) string {
	raw := strings.ToUpper(strings.TrimSpace(code))
	switch raw {
	case "":
		return ""
	case "NA", "SA", "EU", "AF", "AS", "OC":
		return raw
	}
	switch {
	case strings.Contains(raw, "AMERICA"):
		if strings.Contains(raw, "SOUTH") || hasWord(raw, "S") {
			return "SA"
		}
		return "NA"
	case strings.Contains(raw, "EUROPE"):
		return "EU"
	case strings.Contains(raw, "AFRICA"):
		return "AF"
	case strings.Contains(raw, "ASIA"):
		return "AS"
	case strings.Contains(raw, "OCEANIA"), strings.Contains(raw, "AUSTRALIA"):
		return "OC"
	}
	return ""
}

// hasWord reports whether the letters-only word split of s contains w.
func hasWord(s, w string) bool {
	mapped := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return ' '
	}, s)
	for _, part := range strings.Fields(mapped) {
		if part == w {
			return true
		}
	}
	return false
}

// validZone keeps zone values inside [1,99]; anything else is treated as
// absent.
func validZone(zone int) int {
	if zone < 1 || zone > 99 {
		return 0
	}
	return zone
}
