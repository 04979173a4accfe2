/*
Package resp provides helpers for writing the standard JSON response envelope.

Successful responses carry code 0 and the payload in data; failures carry the
business code, the error kind (AccessError or InputError) and a message.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
)

// JSONResponse is the envelope returned by every endpoint.
type JSONResponse struct {
	// Code is 0 for success, otherwise an errs code.
	Code int `json:"code"`

	// Kind is the error kind, empty on success.
	Kind errs.Kind `json:"kind,omitempty"`

	// Message is the client-facing status description.
	Message string `json:"message"`

	// Data is the optional payload of a successful request.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the headers and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	if _, err := w.Write(response); err != nil {
		logx.Warn("Failed to write response body", "error", err)
	}
}

// RespondSuccess writes a 200 OK envelope around data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError writes the envelope for customErr using its HTTP status.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Kind:    customErr.Kind,
		Message: customErr.Message,
	})
}
