package audio

import "math"

// RMS computes the root-mean-square amplitude of a PCM16 mono buffer,
// normalized to [0, 1].
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i < n; i++ {
		sample := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		v := float64(sample) / 32768.0
		sumSquares += v * v
	}

	return math.Sqrt(sumSquares / float64(n))
}

// NearfieldGate rejects far-field background audio before it reaches an
// ASR engine, grounded on original_source's ASR_ENABLE_NEARFIELD_FILTER /
// ASR_NEARFIELD_RMS_THRESHOLD config knobs. It must never be applied across
// a sentence boundary: the batch pipeline gates whole segments (post-split),
// and the streaming session gates its fixed-size strides only while no
// sentence is in progress, so a quiet word mid-sentence is never truncated.
type NearfieldGate struct {
	Enabled   bool
	Threshold float64
}

// Passes reports whether pcm's energy clears the configured threshold.
// When the gate is disabled it always passes.
func (g NearfieldGate) Passes(pcm []byte) bool {
	if !g.Enabled {
		return true
	}
	return RMS(pcm) >= g.Threshold
}
