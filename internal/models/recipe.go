package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type MealSuggestion struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Time        string     `json:"time"`
	Difficulty  Difficulty `json:"difficulty"`
}

type Recipe struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Time        string   `json:"time"`
	Servings    string   `json:"servings"`
}

// RecipeIdea is the shape returned by the alternate recipe provider.
type RecipeIdea struct {
	RecipeName   string   `json:"recipeName"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookingTime  string   `json:"cookingTime"`
}

type SuggestMealsRequest struct {
	Country     string   `json:"country" binding:"required"`
	Ingredients []string `json:"ingredients" binding:"required,min=1,max=50"`
}

type GetRecipeRequest struct {
	Meal        string   `json:"meal" binding:"required"`
	Ingredients []string `json:"ingredients" binding:"required,min=1,max=50"`
	Country     string   `json:"country" binding:"required"`
}

// RecipesRequest takes ingredients as free text, as typed by the user.
type RecipesRequest struct {
	Ingredients string `json:"ingredients" binding:"required"`
	Country     string `json:"country" binding:"required"`
}
