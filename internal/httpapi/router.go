package httpapi

import (
	"github.com/gorilla/mux"
)

// NewRouter builds the gateway's HTTP route table: the batch transcription
// endpoint, model listing, and the fixed /api/ps* compatibility stubs.
// WebSocket routing lives in internal/wsapi and is mounted onto the same
// *mux.Router by the caller.
func NewRouter(h *BatchHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/audio/transcriptions", h.ServeHTTP).Methods("POST")
	r.HandleFunc("/v1/models", h.handleModels).Methods("GET")

	r.HandleFunc("/api/ps", h.handlePSList).Methods("GET")
	r.HandleFunc("/api/ps/{model_id}", h.handlePSModel).Methods("POST", "DELETE")

	return r
}
