package wsapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asrgw/gateway/pkg/asr"
	"github.com/asrgw/gateway/pkg/audio"
	"github.com/asrgw/gateway/pkg/compose"
	"github.com/asrgw/gateway/pkg/task"
	"github.com/asrgw/gateway/pkg/tokenizer"
)

// State is a StreamSession's lifecycle stage, per spec.md §4.7's state
// table.
type State int

const (
	StateInit State = iota
	StateStarted
	StateDraining
	StateClosed
	StateFailed
)

// strideSamples is the fixed PCM chunk size forwarded to the engine per
// spec.md's "recommended 9 600 samples = 600 ms at 16 kHz" guidance.
// Client frames smaller than a stride are coalesced; larger ones are split.
const strideSamples = 9600

// Session drives one WebSocket connection's StreamSession state machine.
// Binary PCM frames accumulate until a full stride is ready, at which point
// the stride clears the near-field gate (unless a sentence is already in
// progress) and is forwarded to the underlying engine's StreamingRecognizer.
type Session struct {
	taskID string
	conn   *websocket.Conn
	log    *slog.Logger

	registry *asr.Registry
	gate     audio.NearfieldGate

	writeMu sync.Mutex

	mu            sync.Mutex
	state         State
	sentenceIndex int
	inSentence    bool
	sentenceStart time.Time
	startPayload  StartTranscriptionPayload

	pending     []byte
	recognizer  asr.StreamingRecognizer
	sentenceTok tokenizer.SentenceTokenizer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession constructs a Session bound to an already-upgraded WebSocket
// connection. gate applies the configured near-field energy filter to
// outbound strides.
func NewSession(ctx context.Context, conn *websocket.Conn, taskID string, registry *asr.Registry, gate audio.NearfieldGate, log *slog.Logger) *Session {
	sctx, cancel := context.WithCancel(ctx)
	return &Session{
		taskID:      taskID,
		conn:        conn,
		log:         log.With("task_id", taskID, "component", "wsapi"),
		registry:    registry,
		gate:        gate,
		state:       StateInit,
		sentenceTok: tokenizer.NewRuleBoundaryTokenizer(nil),
		ctx:         sctx,
		cancel:      cancel,
	}
}

// Run drives the session's read loop until the socket closes or a terminal
// event is reached. It blocks the caller.
func (s *Session) Run() {
	defer s.cleanup()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.onDisconnect()
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.handleControl(data)
		case websocket.BinaryMessage:
			s.handlePCM(data)
		}

		s.mu.Lock()
		terminal := s.state == StateClosed || s.state == StateFailed
		s.mu.Unlock()
		if terminal {
			return
		}
	}
}

func (s *Session) handleControl(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.fail("malformed control frame")
		return
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch frame.Header.Name {
	case ControlStartTranscription:
		if state != StateInit {
			s.fail("StartTranscription received outside Init state")
			return
		}
		s.handleStart(frame)
	case ControlStopTranscription:
		if state != StateStarted {
			s.fail("StopTranscription received outside Started state")
			return
		}
		s.handleStop()
	default:
		s.fail("unknown control frame: " + frame.Header.Name)
	}
}

func (s *Session) handleStart(frame Frame) {
	var payload StartTranscriptionPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || !payload.valid() {
		s.fail("invalid StartTranscription payload")
		return
	}

	handle, err := s.registry.Get("")
	if err != nil {
		s.fail("no realtime engine available: " + err.Error())
		return
	}

	audioConfig := asr.AudioConfig{SampleRate: payload.SampleRate, Channels: 1, Encoding: "pcm", BitsPerSample: 16}
	recCfg := asr.RecognitionConfig{EnablePartialResults: payload.EnableIntermediateResult}

	recognizer, err := handle.Provider.StreamingRecognize(s.ctx, audioConfig, recCfg)
	if err != nil {
		s.fail("engine failed to start streaming: " + err.Error())
		return
	}

	s.mu.Lock()
	s.startPayload = payload
	s.recognizer = recognizer
	s.state = StateStarted
	s.mu.Unlock()

	go s.pumpResults(recognizer)

	s.sendEvent(EventTranscriptionStarted, 20000000, "", nil)
}

func (s *Session) handleStop() {
	s.mu.Lock()
	s.state = StateDraining
	recognizer := s.recognizer
	s.mu.Unlock()

	if recognizer != nil {
		_ = recognizer.Close()
	}
}

// handlePCM forwards a binary PCM frame, coalescing into stride-sized
// chunks before dispatch.
func (s *Session) handlePCM(data []byte) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state != StateStarted {
		s.fail("PCM frame received outside Started state")
		return
	}
	if len(data)%2 != 0 {
		s.fail("PCM frame is not 16-bit aligned")
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, data...)
	strideBytes := strideSamples * 2
	var strides [][]byte
	for len(s.pending) >= strideBytes {
		strides = append(strides, s.pending[:strideBytes])
		s.pending = s.pending[strideBytes:]
	}
	recognizer := s.recognizer
	s.mu.Unlock()

	for _, stride := range strides {
		s.mu.Lock()
		mustForward := s.inSentence
		s.mu.Unlock()

		if !mustForward && !s.gate.Passes(stride) {
			continue
		}
		if recognizer != nil {
			if err := recognizer.SendAudio(s.ctx, stride); err != nil {
				s.fail("engine failed to accept audio: " + err.Error())
				return
			}
		}
	}
}

// pumpResults drains the engine's Results() channel, translating each
// recognition result into SentenceBegin/TranscriptionResultChanged/
// SentenceEnd events, and closes out the session once the channel drains
// after a StopTranscription.
func (s *Session) pumpResults(recognizer asr.StreamingRecognizer) {
	for res := range recognizer.Results() {
		if res == nil {
			continue
		}

		s.mu.Lock()
		if !s.inSentence {
			s.inSentence = true
			s.sentenceIndex++
			s.sentenceStart = time.Now()
			idx := s.sentenceIndex
			s.mu.Unlock()
			s.sendEvent(EventSentenceBegin, 20000000, "", map[string]any{"sentence_index": idx})
		} else {
			s.mu.Unlock()
		}

		if !res.IsFinal {
			s.mu.Lock()
			idx := s.sentenceIndex
			s.mu.Unlock()
			if s.startPayload.EnableIntermediateResult {
				s.sendEvent(EventTranscriptionChanged, 20000000, "", map[string]any{
					"sentence_index": idx,
					"text":           res.Text,
				})
			}
			continue
		}

		text := compose.CleanASRTags(res.Text)
		if s.startPayload.EnableInverseTextNormalization {
			text = compose.ITN(text)
		}
		if text == "" {
			s.mu.Lock()
			s.inSentence = false
			s.mu.Unlock()
			continue
		}

		// The chunk just transcribed may itself span several sentences (the
		// engine buffers several seconds of audio at a time); re-split it
		// with the rule-based boundary tokenizer so each one gets its own
		// begin/end pair instead of collapsing the whole chunk into one.
		for _, sentence := range s.sentenceTok.Feed(text + " ") {
			if sentence == "" {
				continue
			}

			s.mu.Lock()
			if !s.inSentence {
				s.inSentence = true
				s.sentenceIndex++
				idx := s.sentenceIndex
				s.mu.Unlock()
				s.sendEvent(EventSentenceBegin, 20000000, "", map[string]any{"sentence_index": idx})
			} else {
				s.mu.Unlock()
			}

			s.mu.Lock()
			idx := s.sentenceIndex
			s.inSentence = false
			s.mu.Unlock()

			s.sendEvent(EventSentenceEnd, 20000000, "", map[string]any{
				"sentence_index": idx,
				"text":           sentence,
			})
		}
	}

	s.mu.Lock()
	draining := s.state == StateDraining
	s.state = StateClosed
	s.mu.Unlock()

	if draining {
		s.sendEvent(EventTranscriptionCompleted, 20000000, "", nil)
	}
	_ = s.conn.Close()
}

// onDisconnect handles an abrupt client socket close: outstanding inference
// is cancelled cooperatively and no TranscriptionCompleted is emitted.
func (s *Session) onDisconnect() {
	s.mu.Lock()
	alreadyTerminal := s.state == StateClosed || s.state == StateFailed
	s.state = StateClosed
	recognizer := s.recognizer
	s.mu.Unlock()

	if alreadyTerminal {
		return
	}
	s.cancel()
	if recognizer != nil {
		_ = recognizer.Close()
	}
}

func (s *Session) fail(reason string) {
	s.mu.Lock()
	s.state = StateFailed
	recognizer := s.recognizer
	s.mu.Unlock()

	s.sendEvent(EventTaskFailed, 50000000, reason, nil)
	s.cancel()
	if recognizer != nil {
		_ = recognizer.Close()
	}
	_ = s.conn.Close()
}

func (s *Session) cleanup() {
	s.cancel()
}

func (s *Session) sendEvent(name EventName, status int, statusText string, payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}

	frame := Frame{
		Header: Header{
			MessageID:  task.NewID(),
			TaskID:     s.taskID,
			Namespace:  Namespace,
			Name:       string(name),
			Status:     status,
			StatusText: statusText,
		},
		Payload: raw,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.WriteJSON(frame)
}
