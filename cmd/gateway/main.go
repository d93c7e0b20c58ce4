// Command gateway runs the speech-recognition gateway: the batch HTTP
// transcription API and the streaming WebSocket API, backed by a shared
// engine registry and worker pool.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/asrgw/gateway/internal/config"
	"github.com/asrgw/gateway/internal/httpapi"
	"github.com/asrgw/gateway/internal/logging"
	"github.com/asrgw/gateway/internal/wsapi"
	"github.com/asrgw/gateway/pkg/asr"
	"github.com/asrgw/gateway/pkg/dispatch"
	"github.com/asrgw/gateway/pkg/task"
	"github.com/asrgw/gateway/pkg/vad"
)

// engineMultiplier sizes the worker pool relative to the engine count, per
// spec.md §4.9's "sized to the number of ASR engines × a small multiplier".
const engineMultiplier = 4

// App is the explicitly constructed application object that owns the
// config, the engine registry, the worker pool and the task ledger. The VAD
// segmenter is not held here: vad.LoadOnce caches it at package level. See
// SPEC_FULL.md §9.
type App struct {
	cfg      *config.Config
	registry *asr.Registry
	pool     *dispatch.Pool
	tasks    *task.Ledger
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	app := &App{
		cfg:      cfg,
		registry: asr.NewRegistry(),
		tasks:    task.NewLedger(),
	}
	app.registerEngines()
	defer app.registry.Close()

	// Sized after registerEngines so the pool reflects the actual engine
	// count, per spec.md §4.9's "bounded worker pool sized to the number
	// of ASR engines × a small multiplier".
	app.pool = dispatch.New(int64(len(app.registry.IDs())) * engineMultiplier)

	loadVAD := func() (*vad.Segmenter, error) {
		return vad.LoadOnce("default", func() (*vad.Segmenter, error) {
			if err := vad.InitRuntime(""); err != nil {
				return nil, fmt.Errorf("init onnx runtime: %w", err)
			}
			detector, err := vad.NewDetector(vad.DetectorConfig{
				ModelPath:  cfg.VADModel,
				SampleRate: 16000,
				LogLevel:   vad.LogLevelWarn,
			})
			if err != nil {
				return nil, err
			}
			return vad.NewSegmenter(detector, 0), nil
		})
	}

	batch := httpapi.NewBatchHandler(cfg, log, app.registry, app.pool, app.tasks, loadVAD, time.Now().Unix())
	router := httpapi.NewRouter(batch)

	wsServer := wsapi.NewServer(cfg, log, app.registry)
	router.HandleFunc("/ws/v1/asr", wsServer.ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	log.Info("gateway listening", "addr", cfg.HTTPAddr)
	return httpServer.ListenAndServe()
}

// registerEngines binds the configured OpenAI-compatible Whisper engine as
// the "default" canonical id, with the common OpenAI-style model aliases
// mapped onto it, mirroring original_source's map_id(external) → internal
// behavior.
func (a *App) registerEngines() {
	a.registry.Register("default", func() (asr.Provider, error) {
		return asr.NewWhisperProvider(a.cfg.OpenAIAPIKey)
	})
	a.registry.Alias("", "default")
	a.registry.Alias("whisper-1", "default")
	a.registry.Alias("whisper", "default")
}
