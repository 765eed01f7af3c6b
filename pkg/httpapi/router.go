// Package httpapi is the REST transport over vfs.Service, wiring exactly
// the endpoint table of spec §6 with gorilla/mux. Handlers translate
// path/query parameters, call into the Service, map *rfserr.Error to the
// §7 status/body, and assemble the entry descriptor JSON.
package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/matteo027/remote-file-system/pkg/config"
	"github.com/matteo027/remote-file-system/pkg/metrics"
	"github.com/matteo027/remote-file-system/pkg/rfserr"
	"github.com/matteo027/remote-file-system/pkg/utils"
	"github.com/matteo027/remote-file-system/pkg/vfs"
)

var logger = utils.GetLogger("httpapi")

// Handler owns the vfs.Service and the per-request limits carried from
// config.Config.
type Handler struct {
	svc          *vfs.Service
	maxReadSize  int64
	maxWriteBody int64
}

// NewRouter builds the full mux.Router for the endpoint table of spec §6.
// Session/cookie authentication is out of scope: callers are expected to
// wrap the returned router (or call httpapi.WithUser per request) with
// their own authentication middleware before serving traffic.
func NewRouter(svc *vfs.Service, cfg config.Config) *mux.Router {
	h := &Handler{svc: svc, maxReadSize: cfg.MaxReadSize, maxWriteBody: cfg.MaxWriteBody}

	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/directories/{ino}/entries", h.handleReaddir).Methods(http.MethodGet)
	api.HandleFunc("/directories/{parentIno}/entries/lookup", h.handleLookup).Methods(http.MethodGet)
	api.HandleFunc("/directories/{oldParentIno}/entries/{oldName}", h.handleRename).Methods(http.MethodPatch)

	api.HandleFunc("/directories/{parentIno}/dirs/{name}", h.handleMkdir).Methods(http.MethodPost)
	api.HandleFunc("/directories/{parentIno}/dirs/{name}", h.handleRmdir).Methods(http.MethodDelete)

	api.HandleFunc("/directories/{parentIno}/files/{name}", h.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/directories/{parentIno}/files/{name}", h.handleUnlink).Methods(http.MethodDelete)

	api.HandleFunc("/files/{ino}", h.handleRead).Methods(http.MethodGet)
	api.HandleFunc("/files/{ino}", h.handleWrite).Methods(http.MethodPut)
	api.HandleFunc("/files/stream/{ino}", h.handleReadStream).Methods(http.MethodGet)
	api.HandleFunc("/files/stream/{ino}", h.handleWriteStream).Methods(http.MethodPut)
	api.HandleFunc("/files/{ino}/attributes", h.handleGetAttr).Methods(http.MethodGet)
	api.HandleFunc("/files/{ino}/attributes", h.handleSetAttr).Methods(http.MethodPatch)

	api.HandleFunc("/links/{targetIno}", h.handleHardlink).Methods(http.MethodPost)
	api.HandleFunc("/symlinks", h.handleSymlink).Methods(http.MethodPost)
	api.HandleFunc("/symlinks/{ino}", h.handleReadlink).Methods(http.MethodGet)

	api.HandleFunc("/size", h.handleSize).Methods(http.MethodGet)

	return r
}

const requestIDHeader = "X-Request-Id"

// requestIDMiddleware assigns every inbound request a unique id, used to
// correlate a request's log lines without threading a value through every
// handler argument list.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		logger.Debugf("%s %s [%s]", r.Method, r.URL.Path, id)
		next.ServeHTTP(w, r)
	})
}

// fail maps a failed operation to its wire response, logging unmapped
// (EIO/host) failures and counting every failure against its taxonomy
// code (spec §7).
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	rerr, ok := rfserr.As(err)
	if !ok {
		rerr = rfserr.Wrap(rfserr.EIO, err)
	}
	metrics.CountError(op, string(rerr.Code))
	if rerr.Code == rfserr.EIO {
		logger.Errorf("%s: %v", op, err)
	}
	writeError(w, rerr)
}
