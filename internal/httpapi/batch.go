package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/asrgw/gateway/internal/config"
	"github.com/asrgw/gateway/pkg/asr"
	"github.com/asrgw/gateway/pkg/audio"
	"github.com/asrgw/gateway/pkg/compose"
	"github.com/asrgw/gateway/pkg/dispatch"
	"github.com/asrgw/gateway/pkg/result"
	"github.com/asrgw/gateway/pkg/splitter"
	"github.com/asrgw/gateway/pkg/task"
	"github.com/asrgw/gateway/pkg/vad"
)

// chunkSize is the upload streaming granularity, per spec.md's "stream
// upload to a scratch file in 10 MiB chunks" requirement.
const chunkSize = 10 << 20

// plainMaxSegmentSec is the effective max_segment_sec used for
// response_format json/text: splitting only exists there to bound
// per-call engine input size, not to produce subtitle-quality cues, so a
// looser bound reduces segmentation overhead without changing the
// returned text.
const plainMaxSegmentSec = 55.0

// BatchHandler implements POST /v1/audio/transcriptions, GET /v1/models,
// and the /api/ps* compatibility stubs.
type BatchHandler struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *asr.Registry
	pool     *dispatch.Pool
	tasks    *task.Ledger
	loadVAD  func() (*vad.Segmenter, error)
	bootTime int64
}

// NewBatchHandler wires the batch pipeline's collaborators. loadVAD builds
// (or returns the cached) shared VAD segmenter; it is passed through
// vad.LoadOnce by the caller so the model is loaded at most once.
func NewBatchHandler(cfg *config.Config, log *slog.Logger, registry *asr.Registry, pool *dispatch.Pool, tasks *task.Ledger, loadVAD func() (*vad.Segmenter, error), bootTime int64) *BatchHandler {
	return &BatchHandler{cfg: cfg, log: log, registry: registry, pool: pool, tasks: tasks, loadVAD: loadVAD, bootTime: bootTime}
}

func (h *BatchHandler) newTaskID() string {
	return task.NewID()
}

// ServeHTTP implements the batch pipeline, spec.md §4.6 steps (i)-(ix).
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	taskID := h.newTaskID()
	log := h.log.With("task_id", taskID, "component", "batch")

	if !checkAuth(r, h.cfg.AppToken) {
		writeError(w, taskID, StatusAuthFailure, "missing or invalid bearer token")
		return
	}

	scratchPath, form, err := h.receiveUpload(r, taskID)
	if err != nil {
		log.Warn("upload rejected", "err", err)
		if ie, ok := err.(*invalidMessageError); ok {
			writeError(w, taskID, StatusInvalidInput, ie.Error())
			return
		}
		writeError(w, taskID, StatusServerError, err.Error())
		return
	}
	defer os.Remove(scratchPath)

	decoded, err := audio.DecodeFile(scratchPath)
	if err != nil {
		writeError(w, taskID, StatusInvalidInput, fmt.Sprintf("decode failed: %v", err))
		return
	}
	if decoded.DurationMS == 0 {
		writeError(w, taskID, StatusInvalidInput, "decoded audio has zero duration")
		return
	}

	responseFormat := form.get("response_format", "json")
	maxSegmentSec := h.cfg.MaxSegmentSec
	if v := form.get("max_segment_sec", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			maxSegmentSec = f
		}
	}
	if responseFormat == "json" || responseFormat == "text" {
		if maxSegmentSec < plainMaxSegmentSec {
			maxSegmentSec = plainMaxSegmentSec
		}
	}
	minSegmentSec := h.cfg.MinSegmentSec
	if v := form.get("min_segment_sec", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			minSegmentSec = f
		}
	}

	segments, err := h.segment(decoded, maxSegmentSec, minSegmentSec)
	if err != nil {
		writeError(w, taskID, StatusServerError, fmt.Sprintf("vad/split failed: %v", err))
		return
	}

	gate := audio.NearfieldGate{
		Enabled:   h.cfg.ASREnableNearfieldFilter,
		Threshold: h.cfg.ASRNearfieldRMSThreshold,
	}

	modelID := form.get("model", "")
	enablePunc := form.getBool("enable_punctuation", true)
	enableITN := form.getBool("enable_itn", false)
	language := form.get("language", "")

	asrResult, err := h.transcribeSegments(r.Context(), segments, gate, modelID, language, enablePunc, enableITN)
	if err != nil {
		writeError(w, taskID, StatusServerError, fmt.Sprintf("transcription failed: %v", err))
		return
	}
	asrResult.Duration = float64(decoded.DurationMS) / 1000.0

	h.render(w, taskID, responseFormat, *asrResult, language)
}

// form is the parsed set of non-file multipart fields.
type form map[string]string

func (f form) get(key, fallback string) string {
	if v, ok := f[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (f form) getBool(key string, fallback bool) bool {
	v, ok := f[key]
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

type invalidMessageError struct{ msg string }

func (e *invalidMessageError) Error() string { return e.msg }

// receiveUpload streams the multipart "file" part to a scratch file in
// chunkSize chunks, bounding cumulative size by cfg.MaxAudioSize, and
// collects every other form field into a form map. On any error, including
// an oversized upload, the scratch file (if created) is removed before
// returning.
func (h *BatchHandler) receiveUpload(r *http.Request, taskID string) (string, form, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, &invalidMessageError{msg: "expected multipart/form-data body"}
	}

	fields := form{}
	var scratchPath string
	var scratchFile *os.File

	cleanup := func() {
		if scratchFile != nil {
			scratchFile.Close()
		}
		if scratchPath != "" {
			os.Remove(scratchPath)
		}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			cleanup()
			return "", nil, &invalidMessageError{msg: "malformed multipart body"}
		}

		if part.FormName() == "file" {
			scratchPath = filepath.Join(h.cfg.TempDir, "upload-"+taskID+filepath.Ext(part.FileName()))
			if err := os.MkdirAll(h.cfg.TempDir, 0o755); err != nil {
				part.Close()
				cleanup()
				return "", nil, err
			}
			scratchFile, err = os.Create(scratchPath)
			if err != nil {
				part.Close()
				cleanup()
				return "", nil, err
			}

			var total int64
			buf := make([]byte, chunkSize)
			for {
				n, rerr := part.Read(buf)
				if n > 0 {
					total += int64(n)
					if total > h.cfg.MaxAudioSize {
						part.Close()
						cleanup()
						return "", nil, &invalidMessageError{msg: "uploaded file too large"}
					}
					if _, werr := scratchFile.Write(buf[:n]); werr != nil {
						part.Close()
						cleanup()
						return "", nil, werr
					}
				}
				if rerr == io.EOF {
					break
				}
				if rerr != nil {
					part.Close()
					cleanup()
					return "", nil, rerr
				}
			}
			part.Close()
			scratchFile.Close()
			scratchFile = nil
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, 4096))
		part.Close()
		if err != nil {
			cleanup()
			return "", nil, err
		}
		fields[part.FormName()] = strings.TrimSpace(string(value))
	}

	if scratchPath == "" {
		return "", nil, &invalidMessageError{msg: "missing file part"}
	}

	return scratchPath, fields, nil
}

// segment runs VAD over the decoded PCM and merges regions into bounded
// windows, per spec.md §4.3. When the whole clip already fits under
// max_segment_sec, step 1 of the algorithm returns it as a single segment
// without ever calling VAD.
func (h *BatchHandler) segment(decoded *audio.Decoded, maxSegmentSec, minSegmentSec float64) ([]splitter.Segment, error) {
	maxMS := int64(maxSegmentSec * 1000)
	if decoded.DurationMS <= maxMS {
		return splitter.ExtractSegments(decoded.PCM, decoded.SampleRate, []splitter.Region{{StartMS: 0, EndMS: decoded.DurationMS}}), nil
	}

	var regions []splitter.Region

	segmenter, err := h.loadVAD()
	if err != nil {
		h.log.Warn("vad unavailable, falling back to fixed-duration splitting", "err", err)
	} else {
		vadRegions, err := segmenter.Detect(decoded.PCM, decoded.SampleRate)
		if err != nil {
			return nil, err
		}
		for _, r := range vadRegions {
			regions = append(regions, splitter.Region{StartMS: r.StartMS, EndMS: r.EndMS})
		}
	}

	sp := splitter.New(int64(maxSegmentSec*1000), int64(minSegmentSec*1000))
	merged := sp.MergeGreedy(regions, decoded.DurationMS)
	return splitter.ExtractSegments(decoded.PCM, decoded.SampleRate, merged), nil
}

// transcribeSegments dispatches each segment to the engine in time order
// and assembles the combined ASRResult, rebasing per-segment timestamps.
func (h *BatchHandler) transcribeSegments(ctx context.Context, segments []splitter.Segment, gate audio.NearfieldGate, modelID, language string, enablePunc, enableITN bool) (*result.ASRResult, error) {
	handle, err := h.registry.Get(modelID)
	if err != nil {
		return nil, err
	}

	var texts []string
	out := make([]result.TranscriptionSegment, 0, len(segments))

	for _, seg := range segments {
		if !gate.Passes(seg.PCM) {
			continue
		}

		text, err := dispatch.Run(ctx, h.pool, func(ctx context.Context) (string, error) {
			audioConfig := asr.AudioConfig{SampleRate: 16000, Channels: 1, Encoding: "pcm", BitsPerSample: 16}
			recCfg := asr.RecognitionConfig{Language: language, Model: modelID}
			rr, err := handle.Recognize(ctx, bytes.NewReader(seg.PCM), audioConfig, recCfg)
			if err != nil {
				return "", err
			}
			return rr.Text, nil
		})
		if err != nil {
			return nil, err
		}

		text = compose.CleanASRTags(text)
		if enableITN {
			text = compose.ITN(text)
		}
		if text == "" {
			continue
		}

		startSec := float64(seg.StartMS) / 1000.0
		endSec := float64(seg.EndMS) / 1000.0

		if enablePunc {
			for _, sentence := range compose.SplitByPunctuation(text, startSec, endSec) {
				out = append(out, result.TranscriptionSegment{
					ID:       len(out),
					StartSec: sentence.StartSec,
					EndSec:   sentence.EndSec,
					Text:     sentence.Text,
				})
				texts = append(texts, sentence.Text)
			}
		} else {
			out = append(out, result.TranscriptionSegment{ID: len(out), StartSec: startSec, EndSec: endSec, Text: text})
			texts = append(texts, text)
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].StartSec < out[b].StartSec })

	return &result.ASRResult{
		Text:     strings.Join(texts, " "),
		Segments: out,
		Language: language,
	}, nil
}

func (h *BatchHandler) render(w http.ResponseWriter, taskID, format string, r result.ASRResult, language string) {
	switch result.Format(format) {
	case result.FormatText:
		writeText(w, taskID, "text/plain; charset=utf-8", result.RenderText(r))
	case result.FormatSRT:
		writeText(w, taskID, "application/x-subrip; charset=utf-8", result.RenderSRT(r))
	case result.FormatVTT:
		writeText(w, taskID, "text/vtt; charset=utf-8", result.RenderVTT(r))
	case result.FormatVerboseJSON:
		vj := result.ToVerboseJSON(r, language)
		writeJSON(w, taskID, map[string]any{
			"task":     vj.Task,
			"language": vj.Language,
			"duration": vj.Duration,
			"text":     vj.Text,
			"segments": vj.Segments,
		})
	default:
		writeJSON(w, taskID, map[string]any{"text": r.Text})
	}
}
