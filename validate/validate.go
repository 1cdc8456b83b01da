// Package validate checks analysis input before any network call is made: a
// rejected model never reaches the fetch layer. Each of the three query modes
// has its own model and validator; all of them share callsign rules and the
// near-duplicate typo warning.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/s53zo/RBN-spots-analysis-tool/cty"
	"github.com/s53zo/RBN-spots-analysis-tool/spot"
	"github.com/s53zo/RBN-spots-analysis-tool/window"
)

// MaxComparisons bounds the comparison callsign list.
const MaxComparisons = 3

var callsignPattern = regexp.MustCompile(`^[A-Z0-9/-]{3,20}$`)

// Result is a validation verdict. Warnings are advisory (likely typos) and
// never block a run.
type Result struct {
	OK       bool
	Reason   string
	Warnings []string
}

func reject(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// AnalysisInput is the fixed-dates query model.
type AnalysisInput struct {
	Dates       []string // ISO dates, 1-2 unique
	Primary     string
	Comparisons []string
}

// NormalizeAnalysis trims and uppercases the model in place: blank dates and
// calls dropped, comparisons capped at MaxComparisons.
func NormalizeAnalysis(in AnalysisInput) AnalysisInput {
	out := AnalysisInput{Primary: spot.NormalizeCall(in.Primary)}
	for _, d := range in.Dates {
		if strings.TrimSpace(d) != "" {
			out.Dates = append(out.Dates, strings.TrimSpace(d))
		}
	}
	out.Comparisons = normalizeCalls(in.Comparisons)
	return out
}

// Analysis validates the fixed-dates model.
func Analysis(in AnalysisInput) Result {
	input := NormalizeAnalysis(in)

	if len(input.Dates) == 0 {
		return reject("Pick at least one UTC date.")
	}
	if len(input.Dates) > 2 {
		return reject("A maximum of two dates is allowed.")
	}
	if hasDuplicates(input.Dates) {
		return reject("Date 1 and Date 2 must be different.")
	}
	return checkCalls(input.Primary, input.Comparisons)
}

// LiveInput is the rolling live-window query model.
type LiveInput struct {
	Primary     string
	Comparisons []string
	WindowHours int
}

// NormalizeLive trims and uppercases the calls; a zero window selects the
// default size.
func NormalizeLive(in LiveInput) LiveInput {
	out := LiveInput{
		Primary:     spot.NormalizeCall(in.Primary),
		Comparisons: normalizeCalls(in.Comparisons),
		WindowHours: in.WindowHours,
	}
	if out.WindowHours == 0 {
		out.WindowHours = window.DefaultLiveHours
	}
	return out
}

// Live validates the live-window model. Unlike the window resolver, which
// silently falls back, explicit input with an unsupported size is rejected so
// the caller learns about the mistake.
func Live(in LiveInput) Result {
	input := NormalizeLive(in)
	if !window.ValidLiveHours(input.WindowHours) {
		return reject("Live window must be one of 1, 6, 12, 24 or 48 hours.")
	}
	return checkCalls(input.Primary, input.Comparisons)
}

// SkimmerInput is the bounded-range comparison model. AreaType/AreaValue
// select the geographic scope: GLOBAL, CONTINENT, DXCC, CQ, ITU or CALL.
type SkimmerInput struct {
	Primary     string
	Comparisons []string
	FromMs      int64 // UTC epoch milliseconds
	ToMs        int64
	AreaType    string
	AreaValue   string
}

// NormalizeSkimmer trims and uppercases calls and area fields.
func NormalizeSkimmer(in SkimmerInput) SkimmerInput {
	return SkimmerInput{
		Primary:     spot.NormalizeCall(in.Primary),
		Comparisons: normalizeCalls(in.Comparisons),
		FromMs:      in.FromMs,
		ToMs:        in.ToMs,
		AreaType:    strings.ToUpper(strings.TrimSpace(in.AreaType)),
		AreaValue:   strings.ToUpper(strings.TrimSpace(in.AreaValue)),
	}
}

// Skimmer validates the bounded-range model.
func Skimmer(in SkimmerInput) Result {
	input := NormalizeSkimmer(in)

	if input.FromMs <= 0 || input.ToMs <= 0 {
		return reject("Pick both range bounds.")
	}
	from, to := input.FromMs, input.ToMs
	if from > to {
		from, to = to, from
	}
	if to-from > int64(window.MaxSkimmerHours)*3600*1000 {
		return reject("The range may span at most 48 hours.")
	}
	if r := checkArea(input.AreaType, input.AreaValue); !r.OK {
		return r
	}
	return checkCalls(input.Primary, input.Comparisons)
}

func checkArea(areaType, areaValue string) Result {
	switch areaType {
	case "", "GLOBAL":
		return Result{OK: true}
	case "CONTINENT":
		if cty.NormalizeContinent(areaValue) == "" {
			return reject("Continent filter %q is not a known continent.", areaValue)
		}
	case "CQ", "ITU":
		zone, err := strconv.Atoi(areaValue)
		if err != nil || zone < 1 || zone > 99 {
			return reject("%s zone filter must be a number between 1 and 99.", areaType)
		}
	case "DXCC":
		if areaValue == "" {
			return reject("DXCC filter needs an entity name.")
		}
	case "CALL":
		if !callsignPattern.MatchString(areaValue) {
			return reject("Callsign filter %s format looks invalid.", areaValue)
		}
	default:
		return reject("Unknown area filter type %q.", areaType)
	}
	return Result{OK: true}
}

// checkCalls applies the shared callsign rules and attaches typo warnings.
func checkCalls(primary string, comparisons []string) Result {
	if primary == "" {
		return reject("Enter your primary callsign.")
	}
	if !callsignPattern.MatchString(primary) {
		return reject("Primary callsign format looks invalid.")
	}
	for _, call := range comparisons {
		if !callsignPattern.MatchString(call) {
			return reject("Compare callsign %s format looks invalid.", call)
		}
	}
	all := append([]string{primary}, comparisons...)
	if hasDuplicates(all) {
		return reject("Callsigns must be unique within one analysis run.")
	}
	return Result{OK: true, Reason: "Ready to start analysis.", Warnings: typoWarnings(all)}
}

// typoWarnings flags callsign pairs one edit apart: almost always a mistyped
// comparison of the same station.
func typoWarnings(calls []string) []string {
	var warnings []string
	for i := 0; i < len(calls); i++ {
		for j := i + 1; j < len(calls); j++ {
			if levenshtein.ComputeDistance(calls[i], calls[j]) == 1 {
				warnings = append(warnings,
					fmt.Sprintf("%s and %s differ by one character, possible typo", calls[i], calls[j]))
			}
		}
	}
	return warnings
}

func normalizeCalls(calls []string) []string {
	var out []string
	for _, c := range calls {
		if normalized := spot.NormalizeCall(c); normalized != "" {
			out = append(out, normalized)
		}
		if len(out) == MaxComparisons {
			break
		}
	}
	return out
}

func hasDuplicates(values []string) bool {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}
