package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/matteo027/remote-file-system/pkg/metrics"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

// handleRead implements GET /api/files/{ino}?offset=N&size=N.
func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("read", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	offset, size, perr := parseReadRange(r, h.maxReadSize)
	if perr != nil {
		writeError(w, perr)
		return
	}
	data, err := h.svc.Read(caller, ino, offset, size)
	if err != nil {
		h.fail(w, "read", err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseReadRange(r *http.Request, maxReadSize int64) (offset int64, size int, err *rfserr.Error) {
	q := r.URL.Query()
	offset = 0
	if v := q.Get("offset"); v != "" {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || n < 0 {
			return 0, 0, rfserr.New(rfserr.EINVAL, "invalid offset %q", v)
		}
		offset = n
	}
	size = int(maxReadSize)
	if v := q.Get("size"); v != "" {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || n < 0 {
			return 0, 0, rfserr.New(rfserr.EINVAL, "invalid size %q", v)
		}
		size = int(n)
	}
	return offset, size, nil
}

// handleWrite implements PUT /api/files/{ino}?offset=N.
func (h *Handler) handleWrite(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("write", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	offset := int64(0)
	if v := r.URL.Query().Get("offset"); v != "" {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || n < 0 {
			writeError(w, rfserr.New(rfserr.EINVAL, "invalid offset %q", v))
			return
		}
		offset = n
	}
	data, rerr := io.ReadAll(io.LimitReader(r.Body, h.maxWriteBody+1))
	if rerr != nil {
		writeError(w, rfserr.New(rfserr.EIO, "reading request body: %v", rerr))
		return
	}
	if int64(len(data)) > h.maxWriteBody {
		writeError(w, rfserr.New(rfserr.EINVAL, "request body exceeds maximum write size"))
		return
	}
	n, err := h.svc.Write(caller, ino, offset, data)
	if err != nil {
		h.fail(w, "write", err)
		return
	}
	writeJSON(w, http.StatusOK, bytesWrittenResponse{Bytes: n})
}

// handleGetAttr implements GET /api/files/{ino}/attributes.
func (h *Handler) handleGetAttr(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("getattr", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	var ifModSince int64
	if v := r.Header.Get("If-Modified-Since"); v != "" {
		if t, perr := http.ParseTime(v); perr == nil {
			ifModSince = t.Unix()
		}
	}
	entry, notModified, err := h.svc.GetAttr(caller, ino, ifModSince)
	if err != nil {
		h.fail(w, "getattr", err)
		return
	}
	if notModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Last-Modified", time.UnixMilli(entry.Mtime).UTC().Format(http.TimeFormat))
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

// handleSetAttr implements PATCH /api/files/{ino}/attributes.
func (h *Handler) handleSetAttr(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("setattr", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	var body setAttrRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, rfserr.New(rfserr.EINVAL, "malformed request body: %v", err))
		return
	}
	entry, err := h.svc.SetAttr(caller, ino, toSetAttrRequest(body))
	if err != nil {
		h.fail(w, "setattr", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

// handleReadStream implements GET /api/files/stream/{ino}, copying the
// whole file to the response in chunks (spec §4.10).
func (h *Handler) handleReadStream(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("readStream", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if err := h.svc.ReadStream(caller, ino, w); err != nil {
		h.fail(w, "readStream", err)
		return
	}
}

// handleWriteStream implements PUT /api/files/stream/{ino}, copying the
// request body into the file in chunks (spec §4.10).
func (h *Handler) handleWriteStream(w http.ResponseWriter, r *http.Request) {
	defer metrics.Timeit("writeStream", time.Now())
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ino := mux.Vars(r)["ino"]
	n, err := h.svc.WriteStream(caller, ino, io.LimitReader(r.Body, h.maxWriteBody))
	if err != nil {
		h.fail(w, "writeStream", err)
		return
	}
	writeJSON(w, http.StatusOK, bytesWrittenResponse{Bytes: int(n)})
}
