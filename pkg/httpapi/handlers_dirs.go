package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/matteo027/remote-file-system/pkg/metrics"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// handleReaddir implements GET /api/directories/{ino}/entries.
func (h *Handler) handleReaddir(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("readdir", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	entries, err := h.svc.Readdir(caller, ino)
	if err != nil {
		h.fail(w, "readdir", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSONList(entries))
}

// handleLookup implements GET /api/directories/{parentIno}/entries/lookup?name=NAME.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("lookup", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	parentIno := mux.Vars(r)["parentIno"]
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, rfserr.New(rfserr.EINVAL, "missing name query parameter"))
		return
	}
	entry, err := h.svc.Lookup(caller, parentIno, name)
	if err != nil {
		h.fail(w, "lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

// handleMkdir implements POST /api/directories/{parentIno}/dirs/{name}.
func (h *Handler) handleMkdir(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("mkdir", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	entry, err := h.svc.Mkdir(caller, vars["parentIno"], vars["name"])
	if err != nil {
		h.fail(w, "mkdir", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON(entry))
}

// handleRmdir implements DELETE /api/directories/{parentIno}/dirs/{name}.
func (h *Handler) handleRmdir(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("rmdir", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.Rmdir(caller, vars["parentIno"], vars["name"]); err != nil {
		h.fail(w, "rmdir", err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleCreate implements POST /api/directories/{parentIno}/files/{name}.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("create", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	entry, err := h.svc.Create(caller, vars["parentIno"], vars["name"])
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON(entry))
}

// handleUnlink implements DELETE /api/directories/{parentIno}/files/{name}.
func (h *Handler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("unlink", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.Unlink(caller, vars["parentIno"], vars["name"]); err != nil {
		h.fail(w, "unlink", err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleRename implements PATCH /api/directories/{oldParentIno}/entries/{oldName}.
func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("rename", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	var body renameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, rfserr.New(rfserr.EINVAL, "malformed request body: %v", err))
		return
	}
	entry, err := h.svc.Rename(caller, vars["oldParentIno"], vars["oldName"], body.NewParentIno, body.NewName)
	if err != nil {
		h.fail(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}
