// Package handlers implements the drinks HTTP API.
package handlers

import (
	"errors"
	"net/http"

	"coffeeshop/internal/auth"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/store"
)

// Permissions required by the protected routes.
const (
	PermissionReadDetail = "get:drinks-detail"
	PermissionCreate     = "post:drinks"
	PermissionUpdate     = "patch:drinks"
	PermissionDelete     = "delete:drinks"
)

// HandlerFunc is a route handler. claims is nil on public routes.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, claims *auth.Claims)

// Route declares one endpoint. An empty Permission makes the route public.
type Route struct {
	Name       string
	Method     string
	Path       string
	Permission string
	Handle     HandlerFunc
}

// API holds the dependencies shared by the drink handlers.
type API struct {
	store    store.DrinkStore
	verifier auth.Verifier
}

// New builds the API.
func New(drinks store.DrinkStore, verifier auth.Verifier) (*API, error) {
	if drinks == nil {
		return nil, errors.New("handlers: drink store is required")
	}
	if verifier == nil {
		return nil, errors.New("handlers: token verifier is required")
	}
	return &API{store: drinks, verifier: verifier}, nil
}

// Routes lists every drink endpoint.
func (a *API) Routes() []Route {
	return []Route{
		{Name: "list-drinks", Method: http.MethodGet, Path: "/drinks", Handle: a.ListDrinks},
		{Name: "list-drink-details", Method: http.MethodGet, Path: "/drinks-detail", Permission: PermissionReadDetail, Handle: a.ListDrinkDetails},
		{Name: "create-drink", Method: http.MethodPost, Path: "/drinks", Permission: PermissionCreate, Handle: a.CreateDrink},
		{Name: "update-drink", Method: http.MethodPatch, Path: "/drinks/{id:[0-9]+}", Permission: PermissionUpdate, Handle: a.UpdateDrink},
		{Name: "delete-drink", Method: http.MethodDelete, Path: "/drinks/{id:[0-9]+}", Permission: PermissionDelete, Handle: a.DeleteDrink},
	}
}

// Handler adapts a route to net/http, enforcing its permission.
func (a *API) Handler(route Route) http.Handler {
	if route.Permission == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route.Handle(w, r, nil)
		})
	}
	return a.requiresAuth(route.Permission, route.Handle)
}

func (a *API) requiresAuth(permission string, next HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		claims, err := a.verifier.Verify(ctx, token, permission)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		ctx = applog.WithAttrs(ctx, "subject", claims.Subject)
		applog.Debug(ctx, "request authorized", "permission", permission)
		next(w, r.WithContext(ctx), claims)
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		applog.Error(r.Context(), "token verification failed unexpectedly", "error", err)
		authErr = &auth.Error{
			Kind:        auth.KindTokenInvalid,
			Code:        auth.CodeInvalidHeader,
			Description: "Unable to parse authentication token.",
			Err:         err,
		}
	}
	applog.Info(r.Context(), "request rejected", "kind", authErr.Kind.String(), "code", authErr.Code, "error", authErr.Err)
	metrics.AuthFailures.WithLabelValues(authErr.Code).Inc()
	writeJSON(w, authErr.StatusCode(), errorResponse{
		Success: false,
		Error:   authErr.StatusCode(),
		Message: authErr.Description,
		Code:    authErr.Code,
	})
}
