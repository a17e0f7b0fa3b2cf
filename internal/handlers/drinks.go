package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"coffeeshop/internal/auth"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/store"
	"coffeeshop/models"
)

const (
	maxTitleLength = 80
	maxBodyBytes   = 64 << 10
)

type drinkRequest struct {
	Title  *string         `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

func (p drinkRequest) hasRecipe() bool {
	trimmed := bytes.TrimSpace(p.Recipe)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ListDrinks returns every drink in the short form.
func (a *API) ListDrinks(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	ctx := r.Context()
	drinks, err := a.store.List(ctx)
	if err != nil {
		applog.Error(ctx, "failed to list drinks", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	short := make([]models.ShortDrink, 0, len(drinks))
	for _, drink := range drinks {
		short = append(short, drink.Short())
	}
	writeJSON(w, http.StatusOK, drinksResponse{Success: true, Drinks: short})
}

// ListDrinkDetails returns every drink in the long form.
func (a *API) ListDrinkDetails(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	ctx := r.Context()
	drinks, err := a.store.List(ctx)
	if err != nil {
		applog.Error(ctx, "failed to list drink details", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	long := make([]models.LongDrink, 0, len(drinks))
	for _, drink := range drinks {
		long = append(long, drink.Long())
	}
	writeJSON(w, http.StatusOK, drinksResponse{Success: true, Drinks: long})
}

// CreateDrink stores a new drink from a {title, recipe} body.
func (a *API) CreateDrink(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	ctx := r.Context()
	payload, ok := decodeDrinkRequest(w, r)
	if !ok {
		mutation("create", "invalid")
		return
	}

	if payload.Title == nil || !payload.hasRecipe() {
		applog.Debug(ctx, "create drink missing fields", "hasTitle", payload.Title != nil, "hasRecipe", payload.hasRecipe())
		mutation("create", "invalid")
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	title, ok := validTitle(*payload.Title)
	if !ok {
		mutation("create", "invalid")
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	recipe, ok := parseRecipe(w, r, payload.Recipe)
	if !ok {
		mutation("create", "invalid")
		return
	}

	drink, err := a.store.Create(ctx, title, recipe)
	if err != nil {
		applog.Error(ctx, "failed to create drink", "error", err, "title", title)
		mutation("create", "error")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	applog.Info(ctx, "drink created", "id", drink.ID, "title", drink.Title)
	mutation("create", "ok")
	writeJSON(w, http.StatusOK, drinksResponse{Success: true, Drinks: []models.LongDrink{drink.Long()}})
}

// UpdateDrink overwrites the title and/or recipe of an existing drink.
func (a *API) UpdateDrink(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	ctx := r.Context()
	id, ok := drinkID(w, r)
	if !ok {
		return
	}
	payload, ok := decodeDrinkRequest(w, r)
	if !ok {
		mutation("update", "invalid")
		return
	}
	if _, err := a.store.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			applog.Debug(ctx, "update target not found", "id", id)
			mutation("update", "not_found")
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		applog.Error(ctx, "failed to load drink for update", "error", err, "id", id)
		mutation("update", "error")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	var update store.DrinkUpdate
	if payload.Title != nil {
		title, ok := validTitle(*payload.Title)
		if !ok {
			mutation("update", "invalid")
			writeError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		update.Title = &title
	}
	if payload.hasRecipe() {
		recipe, ok := parseRecipe(w, r, payload.Recipe)
		if !ok {
			mutation("update", "invalid")
			return
		}
		update.Recipe = recipe
	}
	if update.Empty() {
		applog.Debug(ctx, "update drink without fields", "id", id)
		mutation("update", "invalid")
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	drink, err := a.store.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			applog.Debug(ctx, "update target not found", "id", id)
			mutation("update", "not_found")
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		applog.Error(ctx, "failed to update drink", "error", err, "id", id)
		mutation("update", "error")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	applog.Info(ctx, "drink updated", "id", drink.ID)
	mutation("update", "ok")
	writeJSON(w, http.StatusOK, drinksResponse{Success: true, Drinks: []models.LongDrink{drink.Long()}})
}

// DeleteDrink removes a drink by id.
func (a *API) DeleteDrink(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	ctx := r.Context()
	id, ok := drinkID(w, r)
	if !ok {
		return
	}

	if err := a.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			applog.Debug(ctx, "delete target not found", "id", id)
			mutation("delete", "not_found")
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		applog.Error(ctx, "failed to delete drink", "error", err, "id", id)
		mutation("delete", "error")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	applog.Info(ctx, "drink deleted", "id", id)
	mutation("delete", "ok")
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Deleted: id})
}

func mutation(operation, outcome string) {
	metrics.DrinkMutations.WithLabelValues(operation, outcome).Inc()
}

func drinkID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	value, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid drink identifier", "identifier", raw)
		writeError(w, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return uint(value), true
}

func decodeDrinkRequest(w http.ResponseWriter, r *http.Request) (drinkRequest, bool) {
	var payload drinkRequest
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return payload, false
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			applog.Debug(r.Context(), "drink payload too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return payload, false
		}
		applog.Debug(r.Context(), "unreadable drink payload", "error", err)
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		applog.Debug(r.Context(), "invalid drink payload", "error", err)
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return payload, false
	}
	return payload, true
}

func validTitle(raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return "", false
	}
	return title, true
}

func parseRecipe(w http.ResponseWriter, r *http.Request, raw json.RawMessage) (models.Recipe, bool) {
	recipe, err := models.ParseRecipe(raw)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRecipe) {
			applog.Debug(r.Context(), "recipe rejected", "error", err)
			writeError(w, http.StatusUnprocessableEntity, msgUnprocessable)
			return nil, false
		}
		applog.Error(r.Context(), "recipe validation unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return nil, false
	}
	return recipe, true
}
