package httpapi

import (
	"net/http"
)

// modelEntry is one item in GET /v1/models' OpenAI-compatible listing.
type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// handleModels lists every canonical engine id registered with the engine
// registry.
func (h *BatchHandler) handleModels(w http.ResponseWriter, r *http.Request) {
	taskID := h.newTaskID()

	ids := h.registry.IDs()
	data := make([]modelEntry, 0, len(ids))
	for _, id := range ids {
		data = append(data, modelEntry{ID: id, Object: "model", Created: h.bootTime, OwnedBy: "asrgw"})
	}

	writeJSON(w, taskID, map[string]any{
		"object": "list",
		"data":   data,
	})
}
