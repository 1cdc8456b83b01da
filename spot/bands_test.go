package spot

import "testing"

func TestNormalizeBandToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"40m", "40M"},
		{"040m", "40M"},
		{"40 meters", "40M"},
		{"40 metres", "40M"},
		{"70cm", "70CM"},
		{"70 centimetres", "70CM"},
		{"4mm", "4MM"},
		{"4 millimeters", "4MM"},
		{"40", "40M"},       // bare metres
		{"1.25", "1.25M"},   // fractional metres
		{"7000", "40M"},     // kHz
		{"7.04", "40M"},     // MHz
		{"14.05", "20M"},    // MHz
		{"14050", "20M"},    // kHz
		{"10.368g", "3CM"},  // GHz
		{"10.368ghz", "3CM"},
		{"999", "999"},      // no band owns 999 MHz
		{"cw skimmer!", "CWSKIMMER"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeBandToken(tc.in); got != tc.want {
			t.Errorf("NormalizeBandToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeBandTokenIdempotent(t *testing.T) {
	inputs := []string{"40m", "7000", "7.04", "14.05", "70cm", "4mm", "999", "cw skimmer", "10.368g"}
	for _, in := range inputs {
		once := NormalizeBandToken(in)
		twice := NormalizeBandToken(once)
		if once != twice {
			t.Errorf("NormalizeBandToken not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestBandFromFreqMHzBoundaries(t *testing.T) {
	if got := BandFromFreqMHz(6.9); got != "40M" {
		t.Errorf("lower bound inclusive: got %q", got)
	}
	if got := BandFromFreqMHz(7.5); got == "40M" {
		t.Errorf("upper bound should be exclusive, got %q", got)
	}
	if got := BandFromFreqMHz(0.001); got != "" {
		t.Errorf("expected no band for 1 kHz, got %q", got)
	}
}

func TestSortBands(t *testing.T) {
	got := SortBands([]string{"10M", "160M", "70CM", "40M", "XYZ"})
	want := []string{"160M", "40M", "10M", "70CM", "XYZ"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortBands order = %v, want %v", got, want)
		}
	}
}

func TestBandOrderIndexUnknownNumeric(t *testing.T) {
	if BandOrderIndex("160M") >= BandOrderIndex("999") {
		t.Fatalf("known bands must sort before unknown numeric labels")
	}
	if BandOrderIndex("999") >= BandOrderIndex("TOTALLYUNKNOWN") {
		t.Fatalf("unknown numeric labels must sort before non-numeric ones")
	}
}
