package response

import (
	"encoding/json"
	"net/http"

	"github.com/pocketfolio/finance-backend/pkg/logger"
)

// WriteJSON writes data as the response body unchanged. Handlers own their
// success shapes; there is no envelope.
func (h *responseHandler) WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log := logger.FromContext(r.Context())
		log.Error("failed to encode response", "error", err, "status", status)
	}
}
