package vad

import "fmt"

// LogLevel represents the ONNX Runtime logging level.
type LogLevel int

const (
	LevelVerbose LogLevel = iota + 1
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

// DetectorConfig holds configuration for creating a VAD detector.
type DetectorConfig struct {
	// The path to the ONNX Silero VAD model file to load.
	ModelPath string
	// The sampling rate of the input audio samples. Supported values are 8000 and 16000.
	SampleRate int
	// The loglevel for the onnx environment. NewDetector does not read this
	// field, and no default is applied to it.
	LogLevel LogLevel
}

// IsValid validates the detector configuration.
func (c DetectorConfig) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("invalid ModelPath: should not be empty")
	}

	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("invalid SampleRate: valid values are 8000 and 16000")
	}

	return nil
}

// DetectorInterface defines the interface for VAD detection.
// This interface allows for mock implementations in testing.
type DetectorInterface interface {
	// Infer runs inference on audio samples and returns the speech probability.
	// samples should be normalized float32 values in the range [-1, 1].
	// Returns a probability value in [0, 1] where higher values indicate speech.
	Infer(samples []float32) (float32, error)

	// Reset resets the detector's internal state.
	// This should be called when starting a new audio stream.
	Reset() error

	// Destroy releases all resources held by the detector.
	// The detector should not be used after calling Destroy.
	Destroy() error
}

// The compile-time check that Detector implements DetectorInterface is in
// detector.go (build tag vad) and in detector_stub.go (without it).
