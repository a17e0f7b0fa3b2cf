package handlers

import (
	"net/http"
	"runtime/debug"

	applog "coffeeshop/internal/log"
)

// Recoverer turns a panicking handler into a 500 JSON response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			applog.Error(r.Context(), "handler panic", "panic", rec, "stack", string(debug.Stack()))
			writeError(w, http.StatusInternalServerError, msgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}
