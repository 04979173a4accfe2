/*
Package req provides helpers for HTTP request parsing and data binding.

JSON bodies are decoded strictly (unknown fields and trailing data rejected),
and integer query parameters are parsed into InputErrors on failure.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"flockr/internal/pkg/errs"
)

// MaxBodyBytes bounds every JSON request body (64 KB).
const MaxBodyBytes int64 = 64 << 10

// BindJSON decodes the JSON request body into dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// QueryInt parses the named query parameter as an int.
// A missing or malformed value is ErrInvalidParams.
func QueryInt(r *http.Request, name string) (int, *errs.CustomError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}
	return v, nil
}
