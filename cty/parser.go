// Package cty loads and queries the CTY prefix database so callsigns can be
// resolved to continent/zone/country metadata with a cache-backed
// most-specific-wins lookup, plus a regex fallback when no database is
// available.
package cty

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PrefixEntry is one prefix rule from the CTY database. Exact entries match a
// whole callsign; prefix entries match by startsWith. Zone values of 0 mean
// the database did not provide one.
type PrefixEntry struct {
	Prefix    string
	Exact     bool
	Primary   bool // informational: first token of its country record
	Country   string
	CQZone    int
	ITUZone   int
	Continent string
	Lat       float64
	Lon       float64
	TZ        float64
}

// prefixToken matches one prefix token: optional "=" exact marker, the body,
// an optional "(n)" CQ zone override, and an optional "[n]" ITU zone override.
var prefixToken = regexp.MustCompile(`^(=)?([^([\s]+)(?:\((\d+)\))?(?:\[(\d+)\])?$`)

var htmlShaped = regexp.MustCompile(`(?i)<html|<body`)

// ParseCTYDat parses the CTY.DAT continuation-line format: each country
// record is a semicolon-terminated group spanning one or more physical lines,
// a 7-field colon-separated header followed by comma/whitespace-separated
// prefix tokens. Malformed or HTML-shaped input (an error page served instead
// of the database) yields zero entries rather than an error. Entries are
// returned sorted for lookup: exact entries first, then by descending prefix
// length so the first match wins.
func ParseCTYDat(text string) []PrefixEntry {
	if text == "" || htmlShaped.MatchString(text) {
		return nil
	}

	var entries []PrefixEntry
	var buffer string
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if buffer != "" {
			buffer += " "
		}
		buffer += line

		for {
			idx := strings.IndexByte(buffer, ';')
			if idx < 0 {
				break
			}
			record := strings.TrimSpace(buffer[:idx])
			buffer = strings.TrimLeft(buffer[idx+1:], " \t")
			if record == "" {
				continue
			}
			entries = append(entries, parseRecord(record)...)
		}
	}

	sortForLookup(entries)
	return entries
}

// sortForLookup orders entries so a linear scan can stop at the first match:
// exact entries first, then prefix entries longest first.
func sortForLookup(entries []PrefixEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Exact != entries[j].Exact {
			return entries[i].Exact
		}
		return len(entries[i].Prefix) > len(entries[j].Prefix)
	})
}

// parseRecord expands one semicolon-terminated country record into its
// per-prefix entries.
func parseRecord(record string) []PrefixEntry {
	fields := strings.Split(record, ":")
	if len(fields) < 8 {
		return nil
	}

	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	base := PrefixEntry{
		Country:   strings.TrimSpace(fields[0]),
		CQZone:    atoiOrZero(fields[1]),
		ITUZone:   atoiOrZero(fields[2]),
		Continent: strings.TrimSpace(fields[3]),
		Lat:       floatOrZero(fields[4]),
		TZ:        floatOrZero(fields[6]),
	}
	if lonErr == nil {
		// CTY.DAT stores longitude with west positive; invert to the
		// conventional east-positive sign.
		base.Lon = -lon
	}

	prefixBlock := strings.TrimRight(strings.Join(fields[7:], ":"), ";")
	tokens := strings.FieldsFunc(prefixBlock, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	out := make([]PrefixEntry, 0, len(tokens))
	primarySet := false
	for _, token := range tokens {
		entry, ok := parseToken(token, base, !primarySet)
		if !ok {
			continue
		}
		out = append(out, entry)
		primarySet = true
	}
	return out
}

// parseToken parses a single prefix token against its record header. A
// parenthesized CQ zone or bracketed ITU zone overrides the header's value
// for that token only; a leading "*" marks the record's primary prefix and
// does not gate matching.
func parseToken(token string, base PrefixEntry, primary bool) (PrefixEntry, bool) {
	cleaned := strings.TrimRight(token, ": \t")
	m := prefixToken.FindStringSubmatch(cleaned)
	if m == nil {
		return PrefixEntry{}, false
	}
	body := strings.TrimLeft(m[2], "*")
	if body == "" {
		return PrefixEntry{}, false
	}

	entry := base
	entry.Prefix = strings.ToUpper(body)
	entry.Exact = m[1] == "="
	entry.Primary = primary
	if m[3] != "" {
		entry.CQZone = atoiOrZero(m[3])
	}
	if m[4] != "" {
		entry.ITUZone = atoiOrZero(m[4])
	}
	return entry, true
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func floatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
