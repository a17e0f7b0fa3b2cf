package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"coffeeshop/internal/config"
	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

const (
	titleColumn  = "Title"
	recipeColumn = "Recipe"
)

func main() {
	csvPath := "drinks.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	created, updated, err := importDrinks(ctx, database, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d drinks from %s (%d new, %d updated)\n", created+updated, filepath.Base(csvPath), created, updated)
	return nil
}

// importDrinks upserts each record by title. A record that fails validation
// aborts the import; records before it stay committed.
func importDrinks(ctx context.Context, database *gorm.DB, records []map[string]string) (int, int, error) {
	if database == nil {
		return 0, 0, fmt.Errorf("database handle is nil")
	}

	created, updated := 0, 0
	for idx, record := range records {
		drink, err := buildDrink(record)
		if err != nil {
			return created, updated, fmt.Errorf("record %d (%s): %w", idx+1, record[titleColumn], err)
		}

		isNew := false
		if err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Drink
			err := tx.Where("lower(title) = ?", strings.ToLower(drink.Title)).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				isNew = true
				if err := tx.Create(&drink).Error; err != nil {
					return fmt.Errorf("create drink %q: %w", drink.Title, err)
				}
				return nil
			case err != nil:
				return fmt.Errorf("find drink %q: %w", drink.Title, err)
			}

			if err := tx.Model(&existing).Updates(map[string]any{
				"title":  drink.Title,
				"recipe": drink.Recipe,
			}).Error; err != nil {
				return fmt.Errorf("update drink %q: %w", drink.Title, err)
			}
			return nil
		}); err != nil {
			return created, updated, fmt.Errorf("record %d (%s): %w", idx+1, record[titleColumn], err)
		}

		if isNew {
			created++
		} else {
			updated++
		}
		applog.Debug(ctx, "drink imported", "title", drink.Title, "new", isNew)
	}
	return created, updated, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildDrink(row map[string]string) (models.Drink, error) {
	title := strings.TrimSpace(row[titleColumn])
	if title == "" {
		return models.Drink{}, errors.New("title is required")
	}
	raw := strings.TrimSpace(row[recipeColumn])
	if raw == "" {
		return models.Drink{}, errors.New("recipe is required")
	}
	recipe, err := models.ParseRecipe([]byte(raw))
	if err != nil {
		return models.Drink{}, err
	}
	return models.Drink{Title: title, Recipe: recipe}, nil
}
