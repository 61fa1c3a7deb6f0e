package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/backend"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string      `json:"error"`
	Code    apperr.Code `json:"code"`
	Details any         `json:"details,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a classified error with the code's public message.
func jsonError(w http.ResponseWriter, code apperr.Code, message string) {
	meta := apperr.MetadataFor(code)
	if message == "" {
		message = meta.PublicMessage
	}
	jsonResponse(w, meta.HTTPStatus, errorBody{Error: message, Code: code})
}

// writeError converts err into a JSON error response. Unclassified errors
// are logged and reported as internal errors without their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *backend.PartialFailure
	if errors.As(err, &partial) {
		code := apperr.CodeOf(partial.Err)
		if code == apperr.CodeInternal {
			code = apperr.CodeServer
		}
		jsonResponse(w, apperr.MetadataFor(code).HTTPStatus, errorBody{
			Error:   partial.Error(),
			Code:    code,
			Details: partial,
		})
		return
	}

	ae := apperr.As(err)
	if ae == nil {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, apperr.CodeInternal, "")
		return
	}

	meta := apperr.MetadataFor(ae.Code())
	body := errorBody{Error: meta.PublicMessage, Code: ae.Code()}
	if meta.DetailsAllowed {
		body.Error = ae.Message()
		body.Details = ae.Details()
	}
	if ae.Code() == apperr.CodeInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	jsonResponse(w, meta.HTTPStatus, body)
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.CodeValidation, "invalid %s", name)
	}
	return id, nil
}
