// Package spot defines the canonical heard-transmission record and the
// normalization path from the upstream wire format: callsign and band
// canonicalization, hard-reject filtering, and hashing for duplicate
// suppression at day-fetch boundaries.
package spot

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// WireSpot is one raw spot record as the RBN endpoint returns it. All numeric
// fields are optional; absence is represented by a nil pointer rather than a
// sentinel value. Alternate field spellings seen in the feed are listed
// explicitly instead of sniffed.
type WireSpot struct {
	Spotter    string   `json:"spotter"`
	SpotterRaw string   `json:"spotterRaw"`
	DXCall     string   `json:"dxCall"`
	Ts         *float64 `json:"ts"` // UTC epoch milliseconds
	FreqKHz    *float64 `json:"freqKHz"`
	Freq       *float64 `json:"freq"` // legacy spelling of freqKHz
	FreqMHz    *float64 `json:"freqMHz"`
	Band       string   `json:"band"`
	SNR        *float64 `json:"snr"`
	DB         *float64 `json:"db"` // legacy spelling of snr
	Speed      *float64 `json:"speed"`
	Mode       string   `json:"mode"`
	TxMode     string   `json:"txMode"`
	TxModeAlt  string   `json:"tx_mode"`
}

// Spot is one heard-transmission event in canonical form. Instances are
// immutable once produced by Normalize.
type Spot struct {
	Spotter     string  // grouping-key form, numeric receiver suffix stripped
	SpotterRaw  string  // spotter exactly as received (normalized case only)
	DXCall      string  // station that was heard
	TimestampMs int64   // UTC epoch milliseconds
	FreqKHz     float64 // 0 when HasFreq is false
	HasFreq     bool
	Band        string // canonical band token, may be ""
	Mode        string
	TxMode      string
	SNRdB       float64 // meaningful only when HasSNR is true
	HasSNR      bool
	SpeedWPM    int // meaningful only when HasSpeed is true
	HasSpeed    bool
	Comment     string
}

// Time returns the spot timestamp as a UTC time.Time.
func (s *Spot) Time() time.Time {
	return time.UnixMilli(s.TimestampMs).UTC()
}

// Normalize converts a wire record into a canonical Spot. It returns nil when
// the record lacks a spotter, a heard call, or a finite timestamp; callers
// filter nil out instead of handling an error.
func Normalize(w WireSpot) *Spot {
	spotterRaw := NormalizeCall(w.SpotterRaw)
	if spotterRaw == "" {
		spotterRaw = NormalizeCall(w.Spotter)
	}
	spotterSrc := w.Spotter
	if strings.TrimSpace(spotterSrc) == "" {
		spotterSrc = spotterRaw
	}
	spotter := SpotterBase(spotterSrc)
	dxCall := NormalizeCall(w.DXCall)

	if spotter == "" || dxCall == "" || !finite(w.Ts) {
		return nil
	}

	s := &Spot{
		Spotter:     spotter,
		SpotterRaw:  spotterRaw,
		DXCall:      dxCall,
		TimestampMs: int64(*w.Ts),
		Mode:        strings.TrimSpace(w.Mode),
	}

	txMode := strings.TrimSpace(w.TxMode)
	if txMode == "" {
		txMode = strings.TrimSpace(w.TxModeAlt)
	}
	s.TxMode = txMode

	freqKHz := w.FreqKHz
	if freqKHz == nil {
		freqKHz = w.Freq
	}
	freqMHz := w.FreqMHz
	if !finite(freqMHz) && finite(freqKHz) {
		mhz := *freqKHz / 1000
		freqMHz = &mhz
	}
	if finite(freqKHz) {
		s.FreqKHz = *freqKHz
		s.HasFreq = true
	}

	s.Band = NormalizeBandToken(w.Band)
	if s.Band == "" && finite(freqMHz) {
		s.Band = BandFromFreqMHz(*freqMHz)
	}

	snr := w.SNR
	if snr == nil {
		snr = w.DB
	}
	if finite(snr) {
		s.SNRdB = *snr
		s.HasSNR = true
	}
	if finite(w.Speed) {
		s.SpeedWPM = int(*w.Speed)
		s.HasSpeed = true
	}

	s.Comment = buildComment(s)
	return s
}

// buildComment renders a human-readable summary for each spot: SNR, speed,
// mode, TX mode when it differs, and the raw skimmer identity when a receiver
// suffix was stripped.
func buildComment(s *Spot) string {
	parts := make([]string, 0, 5)
	if s.HasSNR {
		parts = append(parts, fmt.Sprintf("SNR %g dB", s.SNRdB))
	}
	if s.HasSpeed {
		parts = append(parts, fmt.Sprintf("Speed %d", s.SpeedWPM))
	}
	if s.Mode != "" {
		parts = append(parts, strings.ToUpper(s.Mode))
	}
	if s.TxMode != "" && !strings.EqualFold(s.TxMode, s.Mode) {
		parts = append(parts, "TX "+strings.ToUpper(s.TxMode))
	}
	if s.SpotterRaw != "" && s.SpotterRaw != s.Spotter {
		parts = append(parts, "Skimmer "+s.SpotterRaw)
	}
	return strings.Join(parts, " · ")
}

// Hash64 returns a stable 64-bit identity hash used to drop duplicate
// receptions when overlapping day-fetches are merged. The hash covers the
// grouping-form spotter, the heard call, the timestamp truncated to the
// minute, and the band, in a fixed-layout buffer so the value is deterministic
// across platforms.
func (s *Spot) Hash64() uint64 {
	var buf [40]byte
	minute := s.TimestampMs / int64(time.Minute/time.Millisecond)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(minute))
	writeFixedCall(buf[8:20], s.Spotter)
	writeFixedCall(buf[20:32], s.DXCall)
	writeFixedCall(buf[32:40], s.Band)
	return xxh3.Hash(buf[:])
}

// writeFixedCall copies an already-normalized ASCII string into a fixed-width
// zero-padded window.
func writeFixedCall(dst []byte, s string) {
	n := 0
	for i := 0; i < len(s) && n < len(dst); i++ {
		dst[n] = s[i]
		n++
	}
	for n < len(dst) {
		dst[n] = 0
		n++
	}
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
