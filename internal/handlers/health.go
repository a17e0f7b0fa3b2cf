package handlers

import (
	"context"
	"net/http"
	"time"

	applog "coffeeshop/internal/log"
)

type healthResponse struct {
	Success bool      `json:"success"`
	Status  string    `json:"status"`
	Time    time.Time `json:"time"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health is a readiness handler suitable for infrastructure probes. It pings
// the store when the store supports it.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Success: true,
		Status:  "ok",
		Time:    time.Now().UTC(),
	}
	status := http.StatusOK

	if p, ok := a.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			applog.Warn(r.Context(), "health check store ping failed", "error", err)
			resp.Success = false
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
	applog.Debug(r.Context(), "health check responded", "status", resp.Status)
}
