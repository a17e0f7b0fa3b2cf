package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coffeeshop/internal/handlers"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/metrics"
)

func newRouter(api *handlers.API) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	router.Use(tagRoute)

	applog.Debug(context.Background(), "registering http routes")
	router.HandleFunc("/healthz", api.Health).Methods(http.MethodGet).Name("healthz")
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet).Name("metrics")
	applog.Debug(context.Background(), "route registered", "path", "/metrics")

	for _, route := range api.Routes() {
		router.Handle(route.Path, api.Handler(route)).Methods(route.Method).Name(route.Name)
		applog.Debug(context.Background(), "route registered",
			"name", route.Name,
			"method", route.Method,
			"path", route.Path,
			"protected", route.Permission != "",
		)
	}
	return router
}
