package validate

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeAnalysisUppercasesAndCaps(t *testing.T) {
	got := NormalizeAnalysis(AnalysisInput{
		Dates:       []string{"2026-01-15", "2026-01-16"},
		Primary:     " w1aw ",
		Comparisons: []string{" k1jt", " dl1abc ", "", "9a1aa", "extra"},
	})
	if got.Primary != "W1AW" {
		t.Errorf("primary = %q", got.Primary)
	}
	if len(got.Comparisons) != MaxComparisons {
		t.Fatalf("comparisons = %v, want capped at %d", got.Comparisons, MaxComparisons)
	}
	if got.Comparisons[0] != "K1JT" || got.Comparisons[1] != "DL1ABC" || got.Comparisons[2] != "9A1AA" {
		t.Errorf("comparisons = %v", got.Comparisons)
	}
}

func TestAnalysisAcceptsValidModel(t *testing.T) {
	r := Analysis(AnalysisInput{
		Dates:       []string{"2026-01-15", "2026-01-16"},
		Primary:     "W1AW",
		Comparisons: []string{"K1JT"},
	})
	if !r.OK {
		t.Fatalf("rejected: %s", r.Reason)
	}
}

func TestAnalysisRejections(t *testing.T) {
	cases := []struct {
		name   string
		in     AnalysisInput
		reason string
	}{
		{"no dates", AnalysisInput{Primary: "W1AW"}, "at least one"},
		{"three dates", AnalysisInput{Dates: []string{"a", "b", "c"}, Primary: "W1AW"}, "maximum of two"},
		{"duplicate dates", AnalysisInput{Dates: []string{"2026-01-15", "2026-01-15"}, Primary: "W1AW"}, "must be different"},
		{"no primary", AnalysisInput{Dates: []string{"2026-01-15"}}, "primary callsign"},
		{"short primary", AnalysisInput{Dates: []string{"2026-01-15"}, Primary: "W1"}, "looks invalid"},
		{"bad comparison", AnalysisInput{Dates: []string{"2026-01-15"}, Primary: "W1AW", Comparisons: []string{"K1!"}}, "looks invalid"},
		{"duplicate calls", AnalysisInput{Dates: []string{"2026-01-15"}, Primary: "W1AW", Comparisons: []string{"W1AW"}}, "unique"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Analysis(tc.in)
			if r.OK {
				t.Fatal("accepted invalid input")
			}
			if !strings.Contains(strings.ToLower(r.Reason), tc.reason) {
				t.Errorf("reason = %q, want mention of %q", r.Reason, tc.reason)
			}
		})
	}
}

func TestTypoWarningForNearDuplicateCalls(t *testing.T) {
	r := Analysis(AnalysisInput{
		Dates:       []string{"2026-01-15"},
		Primary:     "S53ZO",
		Comparisons: []string{"S53ZZ", "DL1ABC"},
	})
	if !r.OK {
		t.Fatalf("rejected: %s", r.Reason)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "S53ZZ") {
		t.Fatalf("warnings = %v, want one near-duplicate flag", r.Warnings)
	}
}

func TestNormalizeLiveDefaultsWindow(t *testing.T) {
	got := NormalizeLive(LiveInput{Primary: " s53zo ", Comparisons: []string{" k1jt"}})
	if got.Primary != "S53ZO" || got.WindowHours != 24 {
		t.Fatalf("normalized = %+v", got)
	}
}

func TestLiveRejectsInvalidWindow(t *testing.T) {
	r := Live(LiveInput{Primary: "S53ZO", WindowHours: 72})
	if r.OK || !strings.Contains(strings.ToLower(r.Reason), "window") {
		t.Fatalf("result = %+v", r)
	}
	if ok := Live(LiveInput{Primary: "S53ZO", WindowHours: 48}); !ok.OK {
		t.Fatalf("48h rejected: %s", ok.Reason)
	}
}

func TestLiveRejectsDuplicateCalls(t *testing.T) {
	r := Live(LiveInput{Primary: "S53ZO", Comparisons: []string{"S53ZO"}, WindowHours: 24})
	if r.OK || !strings.Contains(strings.ToLower(r.Reason), "unique") {
		t.Fatalf("result = %+v", r)
	}
}

func skimmerBase() SkimmerInput {
	return SkimmerInput{
		Primary:     "S53ZO",
		Comparisons: []string{"K1JT"},
		FromMs:      time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC).UnixMilli(),
		ToMs:        time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC).UnixMilli(),
		AreaType:    "GLOBAL",
	}
}

func TestSkimmerAcceptsExactly48h(t *testing.T) {
	if r := Skimmer(skimmerBase()); !r.OK {
		t.Fatalf("rejected: %s", r.Reason)
	}
}

func TestSkimmerRejectsRangeOver48h(t *testing.T) {
	in := skimmerBase()
	in.ToMs += int64(time.Hour / time.Millisecond)
	r := Skimmer(in)
	if r.OK || !strings.Contains(r.Reason, "48 hours") {
		t.Fatalf("result = %+v", r)
	}
}

func TestSkimmerNormalizesAreaFields(t *testing.T) {
	got := NormalizeSkimmer(SkimmerInput{Primary: " s53zo ", AreaType: "cq", AreaValue: " 14 "})
	if got.AreaType != "CQ" || got.AreaValue != "14" {
		t.Fatalf("normalized = %+v", got)
	}
}

func TestSkimmerAreaRejections(t *testing.T) {
	cases := []struct {
		name     string
		areaType string
		value    string
		reason   string
	}{
		{"bad continent", "CONTINENT", "ZZ", "continent"},
		{"bad cq zone", "CQ", "abc", "zone"},
		{"zone out of range", "ITU", "120", "zone"},
		{"bad call", "CALL", "!!", "looks invalid"},
		{"unknown type", "PLANET", "X", "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := skimmerBase()
			in.AreaType = tc.areaType
			in.AreaValue = tc.value
			r := Skimmer(in)
			if r.OK {
				t.Fatal("accepted invalid area filter")
			}
			if !strings.Contains(strings.ToLower(r.Reason), tc.reason) {
				t.Errorf("reason = %q, want mention of %q", r.Reason, tc.reason)
			}
		})
	}
}

func TestSkimmerAcceptsContinentFilter(t *testing.T) {
	in := skimmerBase()
	in.AreaType = "CONTINENT"
	in.AreaValue = "EU"
	if r := Skimmer(in); !r.OK {
		t.Fatalf("rejected: %s", r.Reason)
	}
}
