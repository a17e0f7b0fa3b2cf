package mock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

// New returns an in-memory sqlite database seeded with a small menu. Every
// call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := "file:coffeeshop-mock-" + uuid.NewString() + "?mode=memory&cache=shared"
	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

// Menu is the set of drinks the mock database starts with.
func Menu() []models.Drink {
	return []models.Drink{
		{
			Title:  "water",
			Recipe: models.Recipe{{Name: "water", Color: "blue", Parts: 1}},
		},
		{
			Title: "matcha shake",
			Recipe: models.Recipe{
				{Name: "milk", Color: "grey", Parts: 1},
				{Name: "matcha", Color: "green", Parts: 3},
			},
		},
		{
			Title: "flatwhite",
			Recipe: models.Recipe{
				{Name: "milk", Color: "grey", Parts: 3},
				{Name: "coffee", Color: "brown", Parts: 1},
			},
		},
		{
			Title: "cap",
			Recipe: models.Recipe{
				{Name: "foam", Color: "white", Parts: 1},
				{Name: "milk", Color: "grey", Parts: 2},
				{Name: "coffee", Color: "brown", Parts: 1},
			},
		},
	}
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	for _, drink := range Menu() {
		drinkCopy := drink
		if err := database.WithContext(ctx).Create(&drinkCopy).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
