package db

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"coffeeshop/internal/config"
	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

// Initialize opens the database described by cfg and applies pool settings.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	dialector, err := openDialector(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, GormConfig(logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return db, nil
}

// GormConfig returns the gorm settings shared by every database handle.
func GormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func openDialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "file:"):
		return sqlite.Open(url), nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %q", schemeOf(url))
	}
}

func schemeOf(url string) string {
	if idx := strings.Index(url, "://"); idx > 0 {
		return url[:idx]
	}
	return url
}

// AutoMigrate creates or updates the drinks table.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	return db.AutoMigrate(&models.Drink{})
}

// Configure opens and migrates the database.
func Configure(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(database); err != nil {
		return nil, err
	}

	return database, nil
}

// MustConfigure is Configure that panics on failure.
func MustConfigure(cfg config.DatabaseConfig) *gorm.DB {
	database, err := Configure(cfg)
	if err != nil {
		panic(err)
	}

	return database
}

// Reset drops the drinks table, recreates it and inserts the given drinks.
// Existing rows are lost.
func Reset(ctx context.Context, db *gorm.DB, seed []models.Drink) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	applog.Info(ctx, "resetting drinks table", "seed", len(seed))

	if err := db.WithContext(ctx).Migrator().DropTable(&models.Drink{}); err != nil {
		return fmt.Errorf("drop drinks table: %w", err)
	}
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("recreate drinks table: %w", err)
	}

	for i := range seed {
		drink := models.Drink{Title: seed[i].Title, Recipe: seed[i].Recipe}
		if err := db.WithContext(ctx).Create(&drink).Error; err != nil {
			return fmt.Errorf("seed drink %q: %w", drink.Title, err)
		}
	}
	return nil
}

type seedFile struct {
	Drinks []models.Drink `yaml:"drinks"`
}

// DefaultSeed is the menu installed by Reset when no seed file is given.
func DefaultSeed() []models.Drink {
	return []models.Drink{
		{
			Title:  "water",
			Recipe: models.Recipe{{Name: "water", Color: "blue", Parts: 1}},
		},
	}
}

// LoadSeed reads drinks from a YAML file of the form
//
//	drinks:
//	  - title: water
//	    recipe:
//	      - {name: water, color: blue, parts: 1}
//
// An empty path yields DefaultSeed.
func LoadSeed(path string) ([]models.Drink, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, drink := range file.Drinks {
		if strings.TrimSpace(drink.Title) == "" {
			return nil, fmt.Errorf("seed drink %d: title is required", i)
		}
		if len(drink.Recipe) == 0 {
			return nil, fmt.Errorf("seed drink %q: recipe is required", drink.Title)
		}
	}
	return file.Drinks, nil
}
