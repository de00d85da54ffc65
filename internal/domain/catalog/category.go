package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/minegocio/backend/internal/domain/shared"
)

// DefaultCategoryNames are seeded on first start.
var DefaultCategoryNames = []string{"Bebidas", "Snacks", "Dulces", "Cigarrillos", "Aseo", "Otros"}

// Category groups products for browsing and reports
type Category struct {
	shared.BaseEntity
	Name        string
	Description string
	IsActive    bool
}

// NewCategory creates a new active category
func NewCategory(name, description string) (*Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	return &Category{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
		IsActive:    true,
	}, nil
}

// Rename changes the name and description
func (c *Category) Rename(name, description string) error {
	name, err := categoryName(name)
	if err != nil {
		return err
	}
	c.Name = name
	c.Description = description
	c.Touch()
	return nil
}

// ToggleStatus flips IsActive. Products keep their category either way.
func (c *Category) ToggleStatus() {
	c.IsActive = !c.IsActive
	c.Touch()
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError("name", "cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return "", shared.NewValidationError("name", "cannot exceed 100 characters")
	}
	return name, nil
}
