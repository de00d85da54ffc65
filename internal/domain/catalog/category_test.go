package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	c, err := NewCategory(" Bebidas ", "Gaseosas y jugos")
	require.NoError(t, err)
	assert.Equal(t, "Bebidas", c.Name)
	assert.True(t, c.IsActive)

	_, err = NewCategory("", "")
	assert.Error(t, err)

	_, err = NewCategory(strings.Repeat("x", 101), "")
	assert.Error(t, err)
}

func TestDefaultCategoryNames(t *testing.T) {
	assert.Equal(t, []string{"Bebidas", "Snacks", "Dulces", "Cigarrillos", "Aseo", "Otros"}, DefaultCategoryNames)
}

func TestCategory_RenameAndToggle(t *testing.T) {
	c, err := NewCategory("Bebidas", "")
	require.NoError(t, err)

	require.NoError(t, c.Rename(" Bebidas frías ", "con hielo"))
	assert.Equal(t, "Bebidas frías", c.Name)
	assert.Equal(t, "con hielo", c.Description)

	assert.Error(t, c.Rename(" ", ""))
	assert.Equal(t, "Bebidas frías", c.Name, "a rejected rename leaves the category unchanged")

	c.ToggleStatus()
	assert.False(t, c.IsActive)
	c.ToggleStatus()
	assert.True(t, c.IsActive)
}
