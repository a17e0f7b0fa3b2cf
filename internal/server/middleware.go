package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	applog "coffeeshop/internal/log"
	"coffeeshop/internal/metrics"
)

const requestIDHeader = "X-Request-Id"

var (
	corsHeaders = []string{"Content-Type", "Authorization"}
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
)

// withCORS answers preflight requests and decorates every response with the
// allowed headers and methods.
func withCORS(next http.Handler) http.Handler {
	allowHeaders := strings.Join(corsHeaders, ",")
	allowMethods := strings.Join(corsMethods, ",")
	decorated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.Header().Set("Access-Control-Allow-Methods", allowMethods)
		next.ServeHTTP(w, r)
	})
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedHeaders(corsHeaders),
		gorillahandlers.AllowedMethods(corsMethods),
	)(decorated)
}

// compress gzips responses for clients that accept it.
func compress(next http.Handler) http.Handler {
	return gorillahandlers.CompressHandler(next)
}

type routeKey struct{}

// routeLabel is filled in by tagRoute once mux has matched a route.
type routeLabel struct {
	template string
}

func tagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					label.template = tpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests assigns a request id, writes one access log line per request
// and records the request metrics.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		label := &routeLabel{template: "unmatched"}
		ctx := applog.WithAttrs(r.Context(), "requestID", requestID)
		ctx = context.WithValue(ctx, routeKey{}, label)

		m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

		status := strconv.Itoa(m.Code)
		metrics.HTTPRequests.WithLabelValues(r.Method, label.template, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, label.template, status).Observe(m.Duration.Seconds())

		applog.Info(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", label.template,
			"status", m.Code,
			"duration", m.Duration.String(),
			"bytes", m.Written,
		)
	})
}
