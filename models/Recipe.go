package models

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidRecipe is returned when a recipe payload does not have the expected shape.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Ingredient is one entry of a recipe. JSON keys other than name, color and
// parts are kept as a raw object and written back after the known fields.
type Ingredient struct {
	Name  string  `json:"name" yaml:"name"`
	Color string  `json:"color" yaml:"color"`
	Parts float64 `json:"parts" yaml:"parts"`

	extra string
}

type ingredientFields struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

// Extra returns the unrecognised keys of the ingredient as a JSON object, or
// an empty string when there are none.
func (i Ingredient) Extra() string {
	return i.extra
}

// UnmarshalJSON decodes the known fields and keeps everything else.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var fields ingredientFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	delete(all, "name")
	delete(all, "color")
	delete(all, "parts")

	*i = Ingredient{Name: fields.Name, Color: fields.Color, Parts: fields.Parts}
	if len(all) == 0 {
		return nil
	}
	extra, err := json.Marshal(all)
	if err != nil {
		return err
	}
	i.extra = string(extra)
	return nil
}

// MarshalJSON writes name, color and parts first, then any kept keys.
func (i Ingredient) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(ingredientFields{Name: i.Name, Color: i.Color, Parts: i.Parts})
	if err != nil {
		return nil, err
	}
	if len(i.extra) < 3 {
		return encoded, nil
	}
	out := make([]byte, 0, len(encoded)+len(i.extra))
	out = append(out, encoded[:len(encoded)-1]...)
	out = append(out, ',')
	out = append(out, i.extra[1:]...)
	return out, nil
}

// Recipe is an ordered list of ingredients. A single JSON object decodes as a
// one-element recipe.
type Recipe []Ingredient

const recipeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "ingredient": {
      "type": "object",
      "required": ["name", "color", "parts"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "color": {"type": "string", "minLength": 1},
        "parts": {"type": "number", "minimum": 0}
      }
    }
  },
  "oneOf": [
    {"$ref": "#/definitions/ingredient"},
    {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/ingredient"}}
  ]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadRecipeSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(recipeSchema))
	})
	return compiledSchema, schemaErr
}

// ParseRecipe validates a raw JSON recipe payload and decodes it.
func ParseRecipe(raw []byte) (Recipe, error) {
	schema, err := loadRecipeSchema()
	if err != nil {
		return nil, fmt.Errorf("compile recipe schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipe, strings.Join(details, "; "))
	}

	var recipe Recipe
	if err := json.Unmarshal(raw, &recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}
	return recipe, nil
}

// UnmarshalJSON accepts either an array of ingredients or a single ingredient object.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Ingredient
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*r = Recipe{single}
		return nil
	}
	var many []Ingredient
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

// Value encodes the recipe as a JSON array for storage.
func (r Recipe) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal([]Ingredient(r))
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Scan decodes a stored recipe blob.
func (r *Recipe) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan recipe: unsupported type %T", value)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		*r = nil
		return nil
	}
	return r.UnmarshalJSON(raw)
}

// GormDataType pins the column type used by migrations.
func (Recipe) GormDataType() string {
	return "text"
}
