package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanASRTags(t *testing.T) {
	assert.Equal(t, "hello world", CleanASRTags("<|zh|><|EMO_UNKNOWN|>hello world"))
}

func TestSplitByPunctuation_Empty(t *testing.T) {
	assert.Nil(t, SplitByPunctuation("", 0, 1))
	assert.Nil(t, SplitByPunctuation("   ", 0, 1))
}

func TestSplitByPunctuation_ZeroDuration(t *testing.T) {
	got := SplitByPunctuation("hello.", 5, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, 5.0, got[0].StartSec)
	assert.Equal(t, 5.0, got[0].EndSec)
}

func TestSplitByPunctuation_SingleSentence(t *testing.T) {
	got := SplitByPunctuation("hello world.", 0, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "hello world", got[0].Text)
	assert.Equal(t, 0.0, got[0].StartSec)
	assert.Equal(t, 2.0, got[0].EndSec)
}

func TestSplitByPunctuation_MultipleSentences_ProportionalTimestamps(t *testing.T) {
	got := SplitByPunctuation("hi. bye.", 0, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Text)
	assert.Equal(t, "bye", got[1].Text)
	// Last sentence's end snaps exactly to the input end.
	assert.Equal(t, 2.0, got[1].EndSec)
	assert.Equal(t, got[0].EndSec, got[1].StartSec)
}

func TestSplitByPunctuation_LastEndAlwaysSnapsToInputEnd(t *testing.T) {
	got := SplitByPunctuation("one, two, three, four, five.", 10.123, 17.987)
	require.NotEmpty(t, got)
	assert.Equal(t, 17.987, got[len(got)-1].EndSec)
}

func TestSplitByPunctuation_NoPunctuation(t *testing.T) {
	got := SplitByPunctuation("no punctuation here", 1, 3)
	require.Len(t, got, 1)
	assert.Equal(t, "no punctuation here", got[0].Text)
}

func TestITN_ConvertsSpelledOutNumbers(t *testing.T) {
	assert.Equal(t, "I have 23 apples", ITN("I have twenty three apples"))
	assert.Equal(t, "room 9", ITN("room nine"))
}

func TestITN_LeavesUnknownTextAlone(t *testing.T) {
	assert.Equal(t, "no numbers here", ITN("no numbers here"))
}
