package httpapi

import "net/http"

// handlePSList answers GET /api/ps with a fixed, empty model-list payload,
// matching the compatibility surface original_source exposes for tooling
// that probes for a locally running model manager.
func (h *BatchHandler) handlePSList(w http.ResponseWriter, r *http.Request) {
	writeFixed(w, h.newTaskID(), map[string]any{
		"models": []string{},
	})
}

// handlePSModel answers POST/DELETE /api/ps/{model_id} with a fixed ok
// payload; the gateway's engine registry loads lazily on first
// transcription use, so there is nothing to actually pull or evict here.
func (h *BatchHandler) handlePSModel(w http.ResponseWriter, r *http.Request) {
	writeFixed(w, h.newTaskID(), map[string]any{
		"status": "ok",
	})
}
