// Package config loads gateway configuration from the environment.
//
// Values are bound with struct tags via caarlos0/env; an optional .env
// file is loaded first with joho/godotenv, mirroring the way the teacher
// repo's cmd/main.go seeds process environment before reading it.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable knob the gateway reads from the environment.
// Names and defaults mirror original_source/app/core/config.py.
type Config struct {
	AppToken string `env:"APPTOKEN"`
	Device   string `env:"DEVICE" envDefault:"cpu"`
	TempDir  string `env:"TEMP_DIR" envDefault:"/tmp/asr-gateway"`

	ASRModelMode          string `env:"ASR_MODEL_MODE" envDefault:"all"`
	ASREnableRealtimePunc bool   `env:"ASR_ENABLE_REALTIME_PUNC" envDefault:"true"`
	ASREnableLM           bool   `env:"ASR_ENABLE_LM" envDefault:"false"`
	LMWeight              float64 `env:"LM_WEIGHT" envDefault:"0.15"`
	LMBeamSize            int     `env:"LM_BEAM_SIZE" envDefault:"10"`

	VADModel         string `env:"VAD_MODEL" envDefault:"silero-vad"`
	VADModelRevision string `env:"VAD_MODEL_REVISION" envDefault:""`
	PuncModel        string `env:"PUNC_MODEL" envDefault:""`
	PuncRealtimeModel string `env:"PUNC_REALTIME_MODEL" envDefault:""`
	LMModel          string `env:"LM_MODEL" envDefault:""`

	ASREnableNearfieldFilter     bool    `env:"ASR_ENABLE_NEARFIELD_FILTER" envDefault:"true"`
	ASRNearfieldRMSThreshold     float64 `env:"ASR_NEARFIELD_RMS_THRESHOLD" envDefault:"0.01"`
	ASRNearfieldFilterLogEnabled bool    `env:"ASR_NEARFIELD_FILTER_LOG_ENABLED" envDefault:"false"`

	MaxAudioSize int64   `env:"MAX_AUDIO_SIZE" envDefault:"10737418240"`
	MaxVideoSize int64   `env:"MAX_VIDEO_SIZE" envDefault:"10737418240"`
	MaxSegmentSec float64 `env:"MAX_SEGMENT_SEC" envDefault:"6.0"`
	MinSegmentSec float64 `env:"MIN_SEGMENT_SEC" envDefault:"0.8"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:""`

	MaxSessionsPerIP int `env:"MAX_SESSIONS_PER_IP" envDefault:"8"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
}

// Load reads a .env file if present (silently ignored when absent, matching
// godotenv.Load's convention in the teacher's cmd/main.go) and then parses
// the process environment into a Config.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
