package spot

import "testing"

func fptr(v float64) *float64 { return &v }

func TestNormalizeRejectsIncompleteRecords(t *testing.T) {
	cases := []struct {
		name string
		wire WireSpot
	}{
		{"missing spotter", WireSpot{DXCall: "S53ZO", Ts: fptr(1700000000000)}},
		{"missing dx call", WireSpot{Spotter: "W3LPL", Ts: fptr(1700000000000)}},
		{"missing timestamp", WireSpot{Spotter: "W3LPL", DXCall: "S53ZO"}},
	}
	for _, tc := range cases {
		if got := Normalize(tc.wire); got != nil {
			t.Errorf("%s: expected nil, got %+v", tc.name, got)
		}
	}
}

func TestNormalizeStripsReceiverSuffix(t *testing.T) {
	s := Normalize(WireSpot{
		Spotter: "w3lpl-2",
		DXCall:  "s53zo",
		Ts:      fptr(1700000000000),
		FreqKHz: fptr(7005.0),
		SNR:     fptr(23),
		Mode:    "CW",
	})
	if s == nil {
		t.Fatal("expected a spot")
	}
	if s.Spotter != "W3LPL" {
		t.Errorf("grouping key = %q, want W3LPL", s.Spotter)
	}
	if s.SpotterRaw != "W3LPL-2" {
		t.Errorf("raw spotter = %q, want W3LPL-2", s.SpotterRaw)
	}
	if s.Band != "40M" {
		t.Errorf("band = %q, want 40M (derived from 7005 kHz)", s.Band)
	}
	if !s.HasSNR || s.SNRdB != 23 {
		t.Errorf("snr = %v/%v, want 23", s.HasSNR, s.SNRdB)
	}
}

func TestNormalizeLegacyFieldSpellings(t *testing.T) {
	s := Normalize(WireSpot{
		Spotter:   "OH6BG",
		DXCall:    "K3LR",
		Ts:        fptr(1700000000000),
		Freq:      fptr(14025.0),
		DB:        fptr(9),
		TxModeAlt: "CW",
	})
	if s == nil {
		t.Fatal("expected a spot")
	}
	if !s.HasFreq || s.FreqKHz != 14025 {
		t.Errorf("freq = %v/%v, want 14025 via legacy field", s.HasFreq, s.FreqKHz)
	}
	if !s.HasSNR || s.SNRdB != 9 {
		t.Errorf("snr = %v/%v, want 9 via db field", s.HasSNR, s.SNRdB)
	}
	if s.TxMode != "CW" {
		t.Errorf("tx mode = %q, want CW via tx_mode field", s.TxMode)
	}
	if s.Band != "20M" {
		t.Errorf("band = %q, want 20M", s.Band)
	}
}

func TestSpotterBase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"W3LPL-2", "W3LPL"},
		{"w3lpl-12", "W3LPL"},
		{"W3LPL", "W3LPL"},
		{"EA8/DL1ABC", "EA8/DL1ABC"},
		{"K1TTT-", "K1TTT-"},
		{"-1", "-1"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SpotterBase(tc.in); got != tc.want {
			t.Errorf("SpotterBase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDayTokensFromISO(t *testing.T) {
	got := DayTokensFromISO([]string{"2026-02-11", "bogus", "", "2026-02-10"})
	if len(got) != 2 || got[0] != "20260211" || got[1] != "20260210" {
		t.Fatalf("DayTokensFromISO = %v", got)
	}
}

func TestHash64StableAcrossReceiverCopies(t *testing.T) {
	a := Normalize(WireSpot{Spotter: "W3LPL-1", DXCall: "S53ZO", Ts: fptr(1700000012000), Band: "40m", SNR: fptr(10)})
	b := Normalize(WireSpot{Spotter: "W3LPL-2", DXCall: "S53ZO", Ts: fptr(1700000039000), Band: "40m", SNR: fptr(12)})
	if a == nil || b == nil {
		t.Fatal("expected spots")
	}
	if a.Hash64() != b.Hash64() {
		t.Error("same station, same minute, same band should collide for dedup")
	}
	c := Normalize(WireSpot{Spotter: "W3LPL-1", DXCall: "S53ZO", Ts: fptr(1700000130000), Band: "40m", SNR: fptr(10)})
	if a.Hash64() == c.Hash64() {
		t.Error("different minutes must not collide")
	}
}
