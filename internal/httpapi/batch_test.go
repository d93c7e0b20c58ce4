package httpapi

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrgw/gateway/pkg/audio"
	"github.com/asrgw/gateway/pkg/vad"
)

func TestForm_GetFallback(t *testing.T) {
	f := form{"model": "whisper-1"}
	assert.Equal(t, "whisper-1", f.get("model", "default"))
	assert.Equal(t, "default", f.get("language", "default"))
}

func TestForm_GetBool(t *testing.T) {
	f := form{"enable_itn": "true", "enable_punctuation": "bogus"}
	assert.True(t, f.getBool("enable_itn", false))
	assert.True(t, f.getBool("enable_punctuation", true))
	assert.False(t, f.getBool("missing", false))
}

func TestInvalidMessageError_Error(t *testing.T) {
	err := &invalidMessageError{msg: "uploaded file too large"}
	assert.Equal(t, "uploaded file too large", err.Error())
}

// TestSegment_ShortClip_SkipsVADAndSingleSegments covers spec.md §4.3 step
// 1: a clip that already fits under max_segment_sec must come back as one
// segment without a VAD call, even if loadVAD would fail or be slow.
func TestSegment_ShortClip_SkipsVADAndSingleSegments(t *testing.T) {
	h := &BatchHandler{
		log: slog.Default(),
		loadVAD: func() (*vad.Segmenter, error) {
			t.Fatal("loadVAD should not be called for a clip under max_segment_sec")
			return nil, nil
		},
	}

	pcm := make([]byte, 16000*2*3) // 3s of silence at 16kHz mono 16-bit
	decoded := &audio.Decoded{PCM: pcm, SampleRate: 16000, Channels: 1, DurationMS: 3000}

	segments, err := h.segment(decoded, 6.0, 0.8)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, int64(0), segments[0].StartMS)
	assert.Equal(t, int64(3000), segments[0].EndMS)
}
