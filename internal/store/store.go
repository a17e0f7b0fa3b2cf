// Package store is the persistence port for drinks.
package store

import (
	"context"
	"errors"

	"coffeeshop/models"
)

// ErrNotFound is returned when no drink has the requested id.
var ErrNotFound = errors.New("drink not found")

// DrinkUpdate lists the fields to overwrite. Nil fields are left unchanged.
type DrinkUpdate struct {
	Title  *string
	Recipe models.Recipe
}

// Empty reports whether the update would change nothing.
func (u DrinkUpdate) Empty() bool {
	return u.Title == nil && u.Recipe == nil
}

// DrinkStore is the set of operations the HTTP layer needs from storage.
// Every mutating call commits before returning.
type DrinkStore interface {
	List(ctx context.Context) ([]models.Drink, error)
	Get(ctx context.Context, id uint) (*models.Drink, error)
	Create(ctx context.Context, title string, recipe models.Recipe) (*models.Drink, error)
	Update(ctx context.Context, id uint, update DrinkUpdate) (*models.Drink, error)
	Delete(ctx context.Context, id uint) error
}
