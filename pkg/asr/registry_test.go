package asr

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Recognize(ctx context.Context, audio io.Reader, audioConfig AudioConfig, config RecognitionConfig) (*RecognitionResult, error) {
	return &RecognitionResult{Text: "ok"}, nil
}
func (f *fakeProvider) StreamingRecognize(ctx context.Context, audioConfig AudioConfig, config RecognitionConfig) (StreamingRecognizer, error) {
	return nil, nil
}
func (f *fakeProvider) SupportsStreaming() bool      { return false }
func (f *fakeProvider) SupportedLanguages() []string { return nil }
func (f *fakeProvider) Close() error                 { return nil }

// countingProvider records the peak number of Recognize calls in flight.
type countingProvider struct {
	fakeProvider
	inFlight, peak int32
}

func (c *countingProvider) Recognize(ctx context.Context, audio io.Reader, audioConfig AudioConfig, config RecognitionConfig) (*RecognitionResult, error) {
	n := atomic.AddInt32(&c.inFlight, 1)
	for p := atomic.LoadInt32(&c.peak); n > p && !atomic.CompareAndSwapInt32(&c.peak, p, n); p = atomic.LoadInt32(&c.peak) {
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.inFlight, -1)
	return &RecognitionResult{Text: "ok"}, nil
}

func TestRegistry_LazyLoadOnce(t *testing.T) {
	var builds int32
	r := NewRegistry()
	r.Register("default", func() (Provider, error) {
		atomic.AddInt32(&builds, 1)
		return &fakeProvider{name: "default"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Get("default")
			require.NoError(t, err)
			require.NotNil(t, h)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestRegistry_AliasResolution(t *testing.T) {
	r := NewRegistry()
	r.Register("default", func() (Provider, error) {
		return &fakeProvider{name: "default"}, nil
	})
	r.Alias("whisper-1", "default")
	r.Alias("Systran/faster-whisper-large-v2", "default")

	h1, err := r.Get("whisper-1")
	require.NoError(t, err)
	h2, err := r.Get("Systran/faster-whisper-large-v2")
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}

func TestRegistry_UnknownEngine_FallsBackToDefault(t *testing.T) {
	r := NewRegistry()
	r.Register("default", func() (Provider, error) {
		return &fakeProvider{name: "default"}, nil
	})

	want, err := r.Get("default")
	require.NoError(t, err)

	got, err := r.Get("nonexistent")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestRegistry_Get_NoEnginesRegistered(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("anything")
	require.Error(t, err)
	asrErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidConfig, asrErr.Code)
}

func TestEngineHandle_SerializesAccess(t *testing.T) {
	p := &countingProvider{fakeProvider: fakeProvider{name: "default"}}
	h := &EngineHandle{ID: "default", Provider: p}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Recognize(context.Background(), nil, AudioConfig{}, RecognitionConfig{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.peak))
}
