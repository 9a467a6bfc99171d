package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChefSystemPrompt(t *testing.T) {
	assert.NotContains(t, ChefSystemPrompt(""), "The user is from")
	assert.Contains(t, ChefSystemPrompt(" Peru "), "The user is from Peru.")
}

func TestMealsAndRecipePrompts(t *testing.T) {
	p := MealsPrompt("Japan", []string{"rice", "egg"})
	assert.Contains(t, p, "Available Ingredients: rice, egg")
	assert.Contains(t, p, "traditional in Japan")

	p = RecipePrompt("Tamago kake gohan", "Japan", []string{"rice", "egg"})
	assert.Contains(t, p, "Dish Name: Tamago kake gohan")
	assert.Contains(t, p, "authentic to Japan cuisine")

	p = RecipeIdeasPrompt("yam, palm oil", "Nigeria")
	assert.Contains(t, p, "ONLY these ingredients: yam, palm oil.")
	assert.Contains(t, p, "Nigeria's local food culture")
}
