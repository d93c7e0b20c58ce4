package wsapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartTranscriptionPayload_Valid(t *testing.T) {
	assert.True(t, StartTranscriptionPayload{Format: "pcm", SampleRate: 16000}.valid())
	assert.True(t, StartTranscriptionPayload{Format: "pcm", SampleRate: 8000}.valid())
}

func TestStartTranscriptionPayload_InvalidFormat(t *testing.T) {
	assert.False(t, StartTranscriptionPayload{Format: "opus", SampleRate: 16000}.valid())
}

func TestStartTranscriptionPayload_InvalidSampleRate(t *testing.T) {
	assert.False(t, StartTranscriptionPayload{Format: "pcm", SampleRate: 44100}.valid())
}
