package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/matteo027/remote-file-system/pkg/vfs"
)

type ctxKey int

const userCtxKey ctxKey = iota

// errUnauthenticated is distinct from the rfserr taxonomy: spec §7 notes
// 401 comes from the (out-of-scope) auth collaborator, not the core.
var errUnauthenticated = errors.New("not authenticated")

// WithUser returns a request carrying caller as the authenticated User.
// The (out-of-scope) session/cookie authentication collaborator is
// expected to call this before handing the request to this router;
// httpapi itself never authenticates.
func WithUser(r *http.Request, caller vfs.Caller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtxKey, caller))
}

// currentUser reads the authenticated User a prior middleware placed on
// the request context.
func currentUser(r *http.Request) (vfs.Caller, error) {
	caller, ok := r.Context().Value(userCtxKey).(vfs.Caller)
	if !ok {
		return vfs.Caller{}, errUnauthenticated
	}
	return caller, nil
}
