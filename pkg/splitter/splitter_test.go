package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeGreedy_NoRegions_FallsBackToFixedDuration(t *testing.T) {
	s := New(6000, 800)
	got := s.MergeGreedy(nil, 15000)
	assert.Equal(t, []Region{{0, 6000}, {6000, 12000}, {12000, 15000}}, got)
}

func TestMergeGreedy_SingleShortRegion(t *testing.T) {
	s := New(6000, 800)
	got := s.MergeGreedy([]Region{{0, 3000}}, 3000)
	assert.Equal(t, []Region{{0, 3000}}, got)
}

func TestMergeGreedy_MergesMultipleRegionsUnderBound(t *testing.T) {
	s := New(6000, 800)
	regions := []Region{{0, 2000}, {2000, 4000}, {4000, 5500}}
	got := s.MergeGreedy(regions, 5500)
	assert.Equal(t, []Region{{0, 5500}}, got)
}

func TestMergeGreedy_SplitsAtPreviousRegionEnd(t *testing.T) {
	s := New(6000, 800)
	// Third region pushes past 6000ms; should cut at the end of the second region.
	regions := []Region{{0, 2000}, {2000, 5000}, {5000, 9000}}
	got := s.MergeGreedy(regions, 9000)
	assert.Equal(t, []Region{{0, 5000}, {5000, 9000}}, got)
}

func TestMergeGreedy_ForceSplitsOverlongFirstRegion(t *testing.T) {
	s := New(6000, 800)
	regions := []Region{{0, 20000}}
	got := s.MergeGreedy(regions, 20000)
	assert.Equal(t, []Region{{0, 6000}, {6000, 12000}, {12000, 18000}, {18000, 20000}}, got)
}

func TestMergeGreedy_TrailingTailAddedWhenLongEnough(t *testing.T) {
	s := New(6000, 800)
	regions := []Region{{0, 4000}}
	got := s.MergeGreedy(regions, 5500)
	assert.Equal(t, []Region{{0, 4000}, {4000, 5500}}, got)
}

func TestMergeGreedy_TrailingTailDroppedWhenTooShort(t *testing.T) {
	s := New(6000, 800)
	regions := []Region{{0, 4000}}
	got := s.MergeGreedy(regions, 4300)
	assert.Equal(t, []Region{{0, 4000}}, got)
}

func TestExtractSegments(t *testing.T) {
	pcm := make([]byte, 16000*2) // 1 second at 16kHz mono
	regions := []Region{{0, 500}, {500, 1000}}
	segs := ExtractSegments(pcm, 16000, regions)
	assert := assert.New(t)
	assert.Len(segs, 2)
	assert.Equal(int64(0), segs[0].StartMS)
	assert.Equal(int64(500), segs[0].EndMS)
	assert.Equal(16000, len(segs[0].PCM))
	assert.Equal(16000, len(segs[1].PCM))
}
