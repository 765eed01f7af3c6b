package httpapi

import (
	"net/http"
	"time"

	"github.com/matteo027/remote-file-system/pkg/metrics"
)

// handleSize implements GET /api/size.
func (h *Handler) handleSize(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("statfs", time.Now())
	if _, err := currentUser(r); err != nil {
		writeError(w, err)
		return
	}
	total, available, err := h.svc.StatFS()
	if err != nil {
		h.fail(w, "statfs", err)
		return
	}
	writeJSON(w, http.StatusOK, sizeResponse{Total: total, Available: available})
}
