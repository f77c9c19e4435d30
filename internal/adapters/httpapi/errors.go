package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
)

// authErrorResponse is the error body of the /api/auth endpoints.
type authErrorResponse struct {
	Error     string                            `json:"error"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

// messageErrorResponse is the error body of the /api/rides endpoints.
type messageErrorResponse struct {
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeAuthError(w http.ResponseWriter, r *http.Request, status int, message string, details map[string]any) {
	body := authErrorResponse{Error: message}
	if details != nil {
		body.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		body.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, body)
}

func writeMessageError(w http.ResponseWriter, r *http.Request, status int, message string, details map[string]any) {
	body := messageErrorResponse{Message: message}
	if details != nil {
		body.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		body.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
