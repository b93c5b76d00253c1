package models

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

type Category string

const (
	CategoryTops        Category = "tops"
	CategoryBottoms     Category = "bottoms"
	CategoryDresses     Category = "dresses"
	CategoryOuterwear   Category = "outerwear"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"
	CategoryOthers      Category = "others"
)

var Categories = []Category{
	CategoryTops,
	CategoryBottoms,
	CategoryDresses,
	CategoryOuterwear,
	CategoryShoes,
	CategoryAccessories,
	CategoryOthers,
}

func (c *Category) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*c = Category(v)
	case []byte:
		*c = Category(v)
	case nil:
		*c = ""
	default:
		return fmt.Errorf("unsupported category value %T", value)
	}
	return nil
}

func (c Category) Value() (driver.Value, error) {
	return string(c), nil
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps free-form model output to a known category, falling
// back to others.
func NormalizeCategory(raw string) Category {
	category := Category(strings.ToLower(strings.TrimSpace(raw)))
	if category.Valid() {
		return category
	}
	return CategoryOthers
}

func ValidateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return Category(value).Valid()
}
