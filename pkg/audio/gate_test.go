package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pcm16(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func TestRMS_Silence(t *testing.T) {
	buf := pcm16(make([]int16, 100))
	assert.Equal(t, 0.0, RMS(buf))
}

func TestRMS_FullScale(t *testing.T) {
	samples := make([]int16, 100)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 32767
		} else {
			samples[i] = -32768
		}
	}
	buf := pcm16(samples)
	assert.InDelta(t, 1.0, RMS(buf), 0.01)
}

func TestNearfieldGate_Disabled(t *testing.T) {
	g := NearfieldGate{Enabled: false, Threshold: 0.5}
	assert.True(t, g.Passes(pcm16(make([]int16, 10))))
}

func TestNearfieldGate_RejectsQuiet(t *testing.T) {
	g := NearfieldGate{Enabled: true, Threshold: 0.1}
	assert.False(t, g.Passes(pcm16(make([]int16, 100))))
}

func TestNearfieldGate_PassesLoud(t *testing.T) {
	g := NearfieldGate{Enabled: true, Threshold: 0.1}
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 20000
	}
	assert.True(t, g.Passes(pcm16(samples)))
}
