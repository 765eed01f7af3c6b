package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/matteo027/remote-file-system/pkg/rfserr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if err == errUnauthenticated {
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "UNAUTHENTICATED", Message: err.Error()})
		return
	}
	if rerr, ok := rfserr.As(err); ok {
		writeJSON(w, rerr.HTTPStatus(), errorBody{
			Code:    string(rerr.Code),
			Message: rerr.Message,
			Details: rerr.Details,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Code: string(rfserr.EIO), Message: err.Error()})
}
