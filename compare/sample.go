package compare

import "math"

// hashString32 is the FNV-1a 32-bit hash; it seeds the sampling offset so the
// value is stable across runs and platforms.
func hashString32(s string) uint32 {
	hash := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// SampleFlat reduces a flat [timestamp, snr, ...] pair sequence to at most
// capPoints pairs by seeded stride sampling. Identical inputs always yield
// identical output, so a re-render reproduces the same visual subset instead
// of jittering; at or under the cap the data comes back unchanged. The seed
// is typically "spotter|slot|dataKey|band".
func SampleFlat(data []float64, capPoints int, seed string) []float64 {
	totalPoints := len(data) / 2
	if capPoints <= 0 || totalPoints <= capPoints {
		return data
	}
	stride := int(math.Ceil(float64(totalPoints) / float64(capPoints)))
	if stride < 1 {
		stride = 1
	}
	offset := 0
	if stride > 1 {
		offset = int(hashString32(seed) % uint32(stride))
	}
	out := make([]float64, 0, 2*(totalPoints/stride+1))
	for i := offset; i < totalPoints; i += stride {
		out = append(out, data[2*i], data[2*i+1])
	}
	return out
}
