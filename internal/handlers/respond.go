package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	applog "coffeeshop/internal/log"
)

const (
	msgBadRequest       = "bad request"
	msgNotFound         = "resource not found"
	msgMethodNotAllowed = "method not allowed"
	msgUnprocessable    = "unprocessable"
	msgTooLarge         = "request entity too large"
	msgInternal         = "internal server error"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type drinksResponse struct {
	Success bool `json:"success"`
	Drinks  any  `json:"drinks"`
}

type deleteResponse struct {
	Success bool `json:"success"`
	Deleted uint `json:"deleted"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		applog.Error(context.Background(), "failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":500,"message":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: status, Message: message})
}

// NotFound answers unmatched routes with the JSON error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "no route matched", "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusNotFound, msgNotFound)
}

// MethodNotAllowed answers known paths requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "method not allowed", "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
