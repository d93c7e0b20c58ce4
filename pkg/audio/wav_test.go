package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWAV_Header(t *testing.T) {
	pcm := make([]byte, 3200)
	out := WriteWAV(pcm, 16000, 1)

	require.Greater(t, len(out), 44)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, len(pcm)+44, len(out))
}
