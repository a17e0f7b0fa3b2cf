package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"coffeeshop/models"
)

// GormDrinkStore implements DrinkStore on top of a gorm handle.
type GormDrinkStore struct {
	db *gorm.DB
}

// NewGormDrinkStore wraps db.
func NewGormDrinkStore(db *gorm.DB) *GormDrinkStore {
	return &GormDrinkStore{db: db}
}

func (s *GormDrinkStore) List(ctx context.Context) ([]models.Drink, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	drinks := []models.Drink{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&drinks).Error; err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	return drinks, nil
}

func (s *GormDrinkStore) Get(ctx context.Context, id uint) (*models.Drink, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	drink := &models.Drink{}
	err := s.db.WithContext(ctx).First(drink, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get drink %d: %w", id, err)
	}
	return drink, nil
}

func (s *GormDrinkStore) Create(ctx context.Context, title string, recipe models.Recipe) (*models.Drink, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	drink := &models.Drink{Title: title, Recipe: recipe}
	if err := s.db.WithContext(ctx).Create(drink).Error; err != nil {
		return nil, fmt.Errorf("create drink: %w", err)
	}
	return drink, nil
}

func (s *GormDrinkStore) Update(ctx context.Context, id uint, update DrinkUpdate) (*models.Drink, error) {
	drink, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		drink.Title = *update.Title
	}
	if update.Recipe != nil {
		drink.Recipe = update.Recipe
	}
	result := s.db.WithContext(ctx).
		Model(&models.Drink{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": drink.Title, "recipe": drink.Recipe})
	if result.Error != nil {
		return nil, fmt.Errorf("update drink %d: %w", id, result.Error)
	}
	// deleted between the read and the write
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return drink, nil
}

func (s *GormDrinkStore) Delete(ctx context.Context, id uint) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	result := s.db.WithContext(ctx).Delete(&models.Drink{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete drink %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the underlying database answers.
func (s *GormDrinkStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
