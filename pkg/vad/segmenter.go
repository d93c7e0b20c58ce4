package vad

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SpeechRegion is a [start, end) window of detected speech, in milliseconds
// from the start of the audio.
type SpeechRegion struct {
	StartMS int64
	EndMS   int64
}

const (
	windowSamples      = 512 // Silero's native frame size at 16kHz
	defaultThreshold   = 0.5
	defaultHangoverMS  = 200 // speech->silence debounce
	defaultMinSpeechMS = 100
)

// Segmenter runs a DetectorInterface over a whole decoded PCM buffer in
// windowed batch mode and emits speech regions, matching the file-based
// vad(audio_path) -> [(start_ms, end_ms)] contract. The underlying model is
// shared across callers but serialized, since Silero's ONNX session is not
// safe for concurrent Infer calls.
type Segmenter struct {
	mu        sync.Mutex
	detector  DetectorInterface
	threshold float32
}

// NewSegmenter wraps an already-constructed detector. Threshold is the
// speech probability cutoff (0,1); 0 selects the default of 0.5.
func NewSegmenter(detector DetectorInterface, threshold float32) *Segmenter {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Segmenter{detector: detector, threshold: threshold}
}

// Detect runs VAD over pcm (16-bit mono, sampleRate Hz) and returns merged
// speech regions in millisecond offsets.
func (s *Segmenter) Detect(pcm []byte, sampleRate int) ([]SpeechRegion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.detector.Reset(); err != nil {
		return nil, fmt.Errorf("vad: reset: %w", err)
	}

	samples := bytesToFloat32(pcm)
	frameMS := float64(windowSamples) / float64(sampleRate) * 1000

	var regions []SpeechRegion
	var cur *SpeechRegion
	silenceMS := 0.0

	for off := 0; off < len(samples); off += windowSamples {
		end := off + windowSamples
		window := samples[off:min(end, len(samples))]
		if len(window) < windowSamples {
			padded := make([]float32, windowSamples)
			copy(padded, window)
			window = padded
		}

		prob, err := s.detector.Infer(window)
		if err != nil {
			return nil, fmt.Errorf("vad: infer: %w", err)
		}

		startMS := int64(float64(off) / float64(sampleRate) * 1000)
		endMS := int64(float64(off+len(window)) / float64(sampleRate) * 1000)

		if prob >= s.threshold {
			silenceMS = 0
			if cur == nil {
				cur = &SpeechRegion{StartMS: startMS, EndMS: endMS}
			} else {
				cur.EndMS = endMS
			}
		} else if cur != nil {
			silenceMS += frameMS
			cur.EndMS = endMS
			if silenceMS >= defaultHangoverMS {
				if cur.EndMS-cur.StartMS >= defaultMinSpeechMS {
					regions = append(regions, *cur)
				}
				cur = nil
				silenceMS = 0
			}
		}
	}

	if cur != nil && cur.EndMS-cur.StartMS >= defaultMinSpeechMS {
		regions = append(regions, *cur)
	}

	return regions, nil
}

func bytesToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		sample := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		out[i] = float32(sample) / 32768.0
	}
	return out
}

// group coordinates lazy, deduplicated first-use of a shared Segmenter
// across concurrent callers (e.g. two batch requests racing to warm the
// VAD engine), so only one caller pays the model-load cost.
var group singleflight.Group

var (
	cacheMu sync.Mutex
	cache   = map[string]*Segmenter{}
)

// LoadOnce returns the cached Segmenter for key, building it with build on
// first use. Concurrent first callers are deduplicated via singleflight so
// build runs exactly once; later calls return the cached instance directly.
func LoadOnce(key string, build func() (*Segmenter, error)) (*Segmenter, error) {
	cacheMu.Lock()
	if s, ok := cache[key]; ok {
		cacheMu.Unlock()
		return s, nil
	}
	cacheMu.Unlock()

	v, err, _ := group.Do(key, func() (interface{}, error) {
		cacheMu.Lock()
		if s, ok := cache[key]; ok {
			cacheMu.Unlock()
			return s, nil
		}
		cacheMu.Unlock()

		s, err := build()
		if err != nil {
			return nil, err
		}

		cacheMu.Lock()
		cache[key] = s
		cacheMu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Segmenter), nil
}
