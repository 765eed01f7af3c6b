package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/matteo027/remote-file-system/pkg/metrics"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// handleHardlink implements POST /api/links/{targetIno}.
func (h *Handler) handleHardlink(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("hardlink", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	targetIno := mux.Vars(r)["targetIno"]
	var body linkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, rfserr.New(rfserr.EINVAL, "malformed request body: %v", err))
		return
	}
	entry, err := h.svc.Hardlink(caller, targetIno, body.LinkParentIno, body.LinkName)
	if err != nil {
		h.fail(w, "hardlink", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

// handleSymlink implements POST /api/symlinks.
func (h *Handler) handleSymlink(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("symlink", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body symlinkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, rfserr.New(rfserr.EINVAL, "malformed request body: %v", err))
		return
	}
	entry, err := h.svc.Symlink(caller, body.TargetPath, body.LinkParentIno, body.LinkName)
	if err != nil {
		h.fail(w, "symlink", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

// handleReadlink implements GET /api/symlinks/{ino}.
func (h *Handler) handleReadlink(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("readlink", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	target, err := h.svc.Readlink(caller, ino)
	if err != nil {
		h.fail(w, "readlink", err)
		return
	}
	writeJSON(w, http.StatusOK, readlinkResponse{Target: target})
}
