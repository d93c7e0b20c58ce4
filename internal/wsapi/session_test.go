package wsapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/asrgw/gateway/internal/config"
	"github.com/asrgw/gateway/pkg/asr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecognizer struct {
	results chan *asr.RecognitionResult
	closed  chan struct{}
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{results: make(chan *asr.RecognitionResult, 4), closed: make(chan struct{})}
}

func (f *fakeRecognizer) SendAudio(ctx context.Context, data []byte) error { return nil }
func (f *fakeRecognizer) Results() <-chan *asr.RecognitionResult          { return f.results }
func (f *fakeRecognizer) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
		close(f.results)
	}
	return nil
}

type fakeStreamProvider struct {
	recognizer *fakeRecognizer
}

func (p *fakeStreamProvider) Name() string { return "fake" }
func (p *fakeStreamProvider) Recognize(ctx context.Context, audio io.Reader, audioConfig asr.AudioConfig, config asr.RecognitionConfig) (*asr.RecognitionResult, error) {
	return &asr.RecognitionResult{Text: "ok"}, nil
}
func (p *fakeStreamProvider) StreamingRecognize(ctx context.Context, audioConfig asr.AudioConfig, config asr.RecognitionConfig) (asr.StreamingRecognizer, error) {
	return p.recognizer, nil
}
func (p *fakeStreamProvider) SupportsStreaming() bool      { return true }
func (p *fakeStreamProvider) SupportedLanguages() []string { return nil }
func (p *fakeStreamProvider) Close() error                 { return nil }

func TestServer_StreamingHappyPath(t *testing.T) {
	recognizer := newFakeRecognizer()
	registry := asr.NewRegistry()
	registry.Register("default", func() (asr.Provider, error) {
		return &fakeStreamProvider{recognizer: recognizer}, nil
	})
	registry.Alias("", "default")

	cfg := &config.Config{ASREnableNearfieldFilter: false}
	srv := NewServer(cfg, testLogger(), registry)

	ts := httptest.NewServer(http.HandlerFunc(srv.ServeHTTP))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	start := Frame{
		Header:  Header{Name: ControlStartTranscription, Namespace: Namespace},
		Payload: mustJSON(t, StartTranscriptionPayload{Format: "pcm", SampleRate: 16000, EnableIntermediateResult: true}),
	}
	require.NoError(t, conn.WriteJSON(start))

	var started Frame
	require.NoError(t, conn.ReadJSON(&started))
	require.Equal(t, string(EventTranscriptionStarted), started.Header.Name)

	pcm := make([]byte, strideSamples*2)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pcm))

	recognizer.results <- &asr.RecognitionResult{Text: "", IsFinal: false}
	recognizer.results <- &asr.RecognitionResult{Text: "hello", IsFinal: true}

	var begin Frame
	require.NoError(t, conn.ReadJSON(&begin))
	require.Equal(t, string(EventSentenceBegin), begin.Header.Name)

	var changed Frame
	require.NoError(t, conn.ReadJSON(&changed))
	require.Equal(t, string(EventTranscriptionChanged), changed.Header.Name)

	var end Frame
	require.NoError(t, conn.ReadJSON(&end))
	require.Equal(t, string(EventSentenceEnd), end.Header.Name)

	stop := Frame{Header: Header{Name: ControlStopTranscription, Namespace: Namespace}}
	require.NoError(t, conn.WriteJSON(stop))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var completed Frame
	require.NoError(t, conn.ReadJSON(&completed))
	require.Equal(t, string(EventTranscriptionCompleted), completed.Header.Name)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
