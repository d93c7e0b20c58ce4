package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmenter_Detect_SingleRegion(t *testing.T) {
	// 25 windows: 5 silence, 10 speech, 10 silence -- long enough hangover to
	// close the region after the trailing silence run.
	probs := make([]float32, 0, 30)
	for i := 0; i < 5; i++ {
		probs = append(probs, 0.0)
	}
	for i := 0; i < 10; i++ {
		probs = append(probs, 0.9)
	}
	for i := 0; i < 10; i++ {
		probs = append(probs, 0.0)
	}

	detector := NewMockDetectorWithSequence(probs)
	seg := NewSegmenter(detector, 0.5)

	pcm := make([]byte, windowSamples*2*len(probs))
	regions, err := seg.Detect(pcm, 16000)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.True(t, regions[0].EndMS > regions[0].StartMS)
}

func TestSegmenter_Detect_NoSpeech(t *testing.T) {
	detector := NewMockDetectorWithProb(0.0)
	seg := NewSegmenter(detector, 0.5)

	pcm := make([]byte, windowSamples*2*20)
	regions, err := seg.Detect(pcm, 16000)
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestLoadOnce_DeduplicatesBuild(t *testing.T) {
	calls := 0
	build := func() (*Segmenter, error) {
		calls++
		return NewSegmenter(NewMockDetector(), 0.5), nil
	}

	_, err1 := LoadOnce("test-key", build)
	_, err2 := LoadOnce("test-key", build)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 1, calls)
}
