package spot

import (
	"strconv"
	"strings"
)

// BandInfo describes an amateur radio band by canonical label and frequency
// range in MHz. Ranges are inclusive of Min and exclusive of Max so a
// frequency maps to at most one band.
type BandInfo struct {
	Label string  // canonical band label (e.g., "20M", "70CM")
	Min   float64 // minimum frequency in MHz (inclusive)
	Max   float64 // maximum frequency in MHz (exclusive)
}

var bandTable = []BandInfo{
	{Label: "2190M", Min: 0.1357, Max: 0.1378},
	{Label: "630M", Min: 0.472, Max: 0.479},
	{Label: "560M", Min: 0.5, Max: 0.51},
	{Label: "160M", Min: 1.8, Max: 2.0},
	{Label: "80M", Min: 3.4, Max: 4.0},
	{Label: "60M", Min: 5.0, Max: 5.5},
	{Label: "40M", Min: 6.9, Max: 7.5},
	{Label: "30M", Min: 10.0, Max: 10.2},
	{Label: "20M", Min: 13.9, Max: 15.0},
	{Label: "17M", Min: 18.0, Max: 18.2},
	{Label: "15M", Min: 20.8, Max: 22.0},
	{Label: "12M", Min: 24.8, Max: 25.0},
	{Label: "10M", Min: 27.9, Max: 29.8},
	{Label: "6M", Min: 50.0, Max: 54.0},
	{Label: "4M", Min: 70.0, Max: 71.0},
	{Label: "2M", Min: 144.0, Max: 148.0},
	{Label: "1.25M", Min: 222.0, Max: 225.0},
	{Label: "70CM", Min: 420.0, Max: 450.0},
	{Label: "33CM", Min: 902.0, Max: 928.0},
	{Label: "23CM", Min: 1240.0, Max: 1300.0},
	{Label: "13CM", Min: 2300.0, Max: 2450.0},
	{Label: "9CM", Min: 3300.0, Max: 3500.0},
	{Label: "6CM", Min: 5650.0, Max: 5925.0},
	{Label: "3CM", Min: 10000.0, Max: 10500.0},
	{Label: "1.25CM", Min: 24000.0, Max: 24250.0},
	{Label: "6MM", Min: 47000.0, Max: 47200.0},
	{Label: "4MM", Min: 75500.0, Max: 81000.0},
	{Label: "2.5MM", Min: 122000.0, Max: 123000.0},
	{Label: "2MM", Min: 134000.0, Max: 141000.0},
	{Label: "1MM", Min: 241000.0, Max: 250000.0},
}

// meterTokens maps bare metre numbers ("40", "1.25") to their band label so a
// numeric token is tried as a wavelength before being treated as a frequency.
var meterTokens = func() map[string]string {
	m := make(map[string]string, len(bandTable))
	for _, band := range bandTable {
		if strings.HasSuffix(band.Label, "CM") || strings.HasSuffix(band.Label, "MM") {
			continue // only metre labels double as bare-number wavelengths
		}
		num := strings.TrimSuffix(band.Label, "M")
		m[num] = band.Label
		if canon := canonicalNumber(num); canon != "" {
			m[canon] = band.Label
		}
	}
	return m
}()

// bandOrder assigns each canonical label its display position, longest
// wavelength first.
var bandOrder = func() map[string]int {
	labels := []string{
		"2190M", "630M", "560M", "160M", "80M", "60M", "40M", "30M", "20M",
		"17M", "15M", "12M", "10M", "8M", "6M", "5M", "4M", "2M", "1.25M",
		"70CM", "33CM", "23CM", "13CM", "9CM", "6CM", "3CM", "1.25CM",
		"6MM", "4MM", "2.5MM", "2MM", "1MM",
	}
	m := make(map[string]int, len(labels))
	for i, label := range labels {
		m[label] = i
	}
	return m
}()

// canonicalNumber re-renders a decimal string without leading zeros or a
// trailing fractional zero run ("040" -> "40", "7.000" -> "7").
func canonicalNumber(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BandFromFreqMHz maps a frequency in MHz to its canonical band label, or ""
// when the frequency falls outside every tracked range.
func BandFromFreqMHz(freqMHz float64) string {
	for _, band := range bandTable {
		if freqMHz >= band.Min && freqMHz < band.Max {
			return band.Label
		}
	}
	return ""
}

var unitFolds = []struct{ old, new string }{
	{"millimeters", "mm"},
	{"millimeter", "mm"},
	{"millimetres", "mm"},
	{"millimetre", "mm"},
	{"centimeters", "cm"},
	{"centimeter", "cm"},
	{"centimetres", "cm"},
	{"centimetre", "cm"},
	{"meters", "m"},
	{"meter", "m"},
	{"metres", "m"},
	{"metre", "m"},
}

// NormalizeBandToken canonicalizes a free-text band label. Explicit unit
// tokens ("40m", "70cm", "4mm") keep their unit; bare numbers are tried as a
// wavelength in metres, then as a frequency (kHz when >= 1000, else MHz);
// "<n>g"/"<n>ghz" tokens are treated as GHz. Anything unresolvable passes
// through uppercased with unsafe characters stripped. The function is
// idempotent over its own outputs.
func NormalizeBandToken(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}

	token := strings.ToLower(cleaned)
	token = strings.Join(strings.Fields(token), "")
	for _, fold := range unitFolds {
		token = strings.ReplaceAll(token, fold.old, fold.new)
	}

	if num, unit, ok := splitNumberUnit(token); ok {
		if canon := canonicalNumber(num); canon != "" {
			return strings.ToUpper(canon + unit)
		}
	}

	if body, ok := cutGigahertz(token); ok {
		if v, err := strconv.ParseFloat(body, 64); err == nil {
			if band := BandFromFreqMHz(v * 1000); band != "" {
				return band
			}
			return strings.ToUpper(body + "G")
		}
	}

	if isNumeric(token) {
		if label, ok := meterTokens[token]; ok {
			return label
		}
		if label, ok := meterTokens[canonicalNumber(token)]; ok {
			return label
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return ""
		}
		mhz := v
		if v >= 1000 {
			mhz = v / 1000 // kHz
		}
		if band := BandFromFreqMHz(mhz); band != "" {
			return band
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return stripUnsafe(strings.ToUpper(cleaned))
}

// splitNumberUnit splits "<number><mm|cm|m>" tokens.
func splitNumberUnit(token string) (num, unit string, ok bool) {
	for _, u := range []string{"mm", "cm", "m"} {
		body, found := strings.CutSuffix(token, u)
		if !found || body == "" {
			continue
		}
		if isNumeric(body) {
			return body, u, true
		}
	}
	return "", "", false
}

// cutGigahertz strips a trailing "ghz" or "g" from a numeric token.
func cutGigahertz(token string) (string, bool) {
	if body, ok := strings.CutSuffix(token, "ghz"); ok && isNumeric(body) {
		return body, true
	}
	if body, ok := strings.CutSuffix(token, "g"); ok && isNumeric(body) {
		return body, true
	}
	return "", false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
		case s[i] == '.' && !dot && i > 0 && i < len(s)-1:
			dot = true
		default:
			return false
		}
	}
	return true
}

func stripUnsafe(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '/' || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// BandOrderIndex returns the display sort position for a band label. Unknown
// numeric labels sort after the table by value; everything else sorts last.
func BandOrderIndex(band string) int {
	key := NormalizeBandToken(band)
	if idx, ok := bandOrder[key]; ok {
		return idx
	}
	if v, err := strconv.ParseFloat(strings.TrimRight(key, "GMC"), 64); err == nil {
		return 1000 + int(v)
	}
	return 9999
}

// SortBands returns band labels ordered longest wavelength first for display.
func SortBands(bands []string) []string {
	out := make([]string, len(bands))
	copy(out, bands)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			ai, bi := BandOrderIndex(out[j-1]), BandOrderIndex(out[j])
			if ai < bi || (ai == bi && out[j-1] <= out[j]) {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
