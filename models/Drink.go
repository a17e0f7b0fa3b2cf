package models

// Drink is a single menu entry. The recipe is persisted as an opaque JSON blob.
type Drink struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id" yaml:"-"`
	Title  string `gorm:"type:varchar(80);not null" json:"title" yaml:"title"`
	Recipe Recipe `gorm:"type:text;not null" json:"recipe" yaml:"recipe"`
}

// ShortIngredient is the public rendering of an ingredient. It carries no name.
type ShortIngredient struct {
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

// ShortDrink is the public projection of a Drink.
type ShortDrink struct {
	ID     uint              `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// LongDrink is the detailed projection of a Drink.
type LongDrink struct {
	ID     uint         `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short renders the drink without ingredient names.
func (d Drink) Short() ShortDrink {
	recipe := make([]ShortIngredient, 0, len(d.Recipe))
	for _, ingredient := range d.Recipe {
		recipe = append(recipe, ShortIngredient{
			Color: ingredient.Color,
			Parts: ingredient.Parts,
		})
	}
	return ShortDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long renders the drink with every ingredient field.
func (d Drink) Long() LongDrink {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return LongDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}
