package pikado

import (
	"strings"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

type IngredientCategory struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

var ingredientCatalog = []IngredientCategory{
	{Name: "Proteins", Items: []string{"Chicken", "Beef", "Pork", "Fish", "Shrimp", "Tofu", "Eggs", "Lamb"}},
	{Name: "Vegetables", Items: []string{"Onion", "Garlic", "Tomato", "Potato", "Carrot", "Bell Pepper", "Broccoli", "Spinach", "Mushroom", "Zucchini"}},
	{Name: "Grains", Items: []string{"Rice", "Pasta", "Bread", "Flour", "Noodles", "Quinoa", "Oats"}},
	{Name: "Dairy", Items: []string{"Milk", "Cheese", "Butter", "Yogurt", "Cream"}},
	{Name: "Herbs", Items: []string{"Basil", "Cilantro", "Parsley", "Thyme", "Rosemary", "Oregano", "Mint"}},
	{Name: "Pantry", Items: []string{"Olive Oil", "Soy Sauce", "Vinegar", "Sugar", "Salt", "Pepper", "Honey", "Lemon"}},
}

// Ingredients returns the catalog filtered by a case-insensitive substring.
// Categories left empty by the filter are omitted.
func Ingredients(query string) []IngredientCategory {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]IngredientCategory, 0, len(ingredientCatalog))
	for _, cat := range ingredientCatalog {
		var items []string
		for _, it := range cat.Items {
			if query == "" || strings.Contains(strings.ToLower(it), query) {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			out = append(out, IngredientCategory{Name: cat.Name, Items: items})
		}
	}
	return out
}

func Countries() []models.Country {
	return models.Countries
}
