package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// errUploadTooLarge is returned when the upload exceeds MaxUpload.
var errUploadTooLarge = errors.New("upload exceeds size limit")

// StatusFor maps an error to its HTTP status. Engine kinds map to client
// errors; anything else is a server error.
func StatusFor(err error) int {
	if errors.Is(err, errUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}

	switch model.KindOf(err) {
	case model.KindUnknownMachine, model.KindInvalidRequest:
		return http.StatusBadRequest
	case model.KindPayloadTooLarge:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// writeError logs err with its kind and writes a JSON error body. Server
// errors hide their detail from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	detail := errorDetail{Message: err.Error()}

	var ee *model.EngineError
	if errors.As(err, &ee) {
		detail.Kind = ee.Kind.String()
		detail.Field = ee.Field
	}

	s.logFrom(r.Context()).Warn("request.failed",
		"status", status,
		"kind", detail.Kind,
		"field", detail.Field,
		"error", err.Error(),
	)

	if status == http.StatusInternalServerError {
		detail = errorDetail{Message: "internal server error"}
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
