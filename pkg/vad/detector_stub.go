//go:build !vad

package vad

import "fmt"

// Detector is a stub implementation used when the 'vad' build tag is not
// set (no ONNX Runtime available in the build environment).
type Detector struct{}

// NewDetector returns an error indicating VAD support is not built in.
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	return nil, fmt.Errorf("vad: support not enabled, rebuild with '-tags vad' and ONNX Runtime installed")
}

func (sd *Detector) Infer(samples []float32) (float32, error) {
	return 0, fmt.Errorf("vad: support not enabled")
}

func (sd *Detector) Reset() error {
	return fmt.Errorf("vad: support not enabled")
}

func (sd *Detector) Destroy() error {
	return fmt.Errorf("vad: support not enabled")
}

// InitRuntime is a no-op stub.
func InitRuntime(libraryPath string) error { return nil }

// DestroyRuntime is a no-op stub.
func DestroyRuntime() error { return nil }

var _ DetectorInterface = (*Detector)(nil)
