package result

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() ASRResult {
	return ASRResult{
		Text:     "你好。世界！",
		Duration: 2.0,
		Segments: []TranscriptionSegment{
			{ID: 0, StartSec: 0, EndSec: 2.0, Text: "你好。世界！"},
		},
	}
}

func TestFormatSRTTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00,000", formatSRTTimestamp(0))
	assert.Equal(t, "00:01:01,500", formatSRTTimestamp(61.5))
	assert.Equal(t, "01:00:00,000", formatSRTTimestamp(3600))
}

func TestFormatVTTTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00.000", formatVTTTimestamp(0))
	assert.Equal(t, "00:01:01.500", formatVTTTimestamp(61.5))
}

func TestRenderSRT_NumbersEntriesDenselyFromOne(t *testing.T) {
	out := RenderSRT(sample())
	require.True(t, strings.HasPrefix(out, "1\n"))
	assert.Contains(t, out, "-->")
}

func TestRenderVTT_HasHeaderAndNoNumbering(t *testing.T) {
	out := RenderVTT(sample())
	require.True(t, strings.HasPrefix(out, "WEBVTT\n\n"))
	assert.NotContains(t, out, "\n1\n")
}

func TestRenderText_ReturnsConcatenatedText(t *testing.T) {
	assert.Equal(t, "你好。世界！", RenderText(sample()))
}

func TestToVerboseJSON_DetectsChineseByDefault(t *testing.T) {
	vj := ToVerboseJSON(sample(), "")
	assert.Equal(t, "transcribe", vj.Task)
	assert.Equal(t, "zh", vj.Language)
	assert.Equal(t, 2.0, vj.Duration)
	require.Len(t, vj.Segments, 1)
	assert.Equal(t, 0, vj.Segments[0].ID)
}

func TestToVerboseJSON_DetectsEnglishWithNoHanRunes(t *testing.T) {
	r := ASRResult{Text: "hello world", Segments: []TranscriptionSegment{{Text: "hello world", EndSec: 1}}}
	vj := ToVerboseJSON(r, "")
	assert.Equal(t, "en", vj.Language)
}

func TestToVerboseJSON_CallerOverridesLanguage(t *testing.T) {
	vj := ToVerboseJSON(sample(), "ja")
	assert.Equal(t, "ja", vj.Language)
}
