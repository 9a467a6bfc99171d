// Package pikado implements the Pik-a-Do recipe wizard: meal suggestions
// for a country and a set of ingredients, then a full recipe.
package pikado

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/emilythestrangee/cheffry/backend/internal/ai"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

var (
	ErrInvalidInput  = errors.New("invalid wizard input")
	ErrNoSuggestions = errors.New("model returned no usable suggestions")
)

const (
	MinMeals       = 4
	MaxMeals       = 6
	MaxIngredients = 50

	mealsMaxTokens  = 1000
	recipeMaxTokens = 1500
)

// JSONGenerator produces a structured answer decoded into out.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, maxTokens int, out any) error
}

// RecipeSuggester is the alternate provider used by /api/recipes.
type RecipeSuggester interface {
	SuggestRecipes(ctx context.Context, ingredients, country string) ([]models.RecipeIdea, error)
}

type Service struct {
	llm     JSONGenerator
	recipes RecipeSuggester
	log     zerolog.Logger
}

func NewService(llm JSONGenerator, recipes RecipeSuggester) *Service {
	return &Service{llm: llm, recipes: recipes, log: logging.Component("pikado")}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// upstream wraps a provider error, reporting undecodable replies as
// ErrNoSuggestions.
func upstream(op string, err error) error {
	if errors.Is(err, ai.ErrBadResponse) {
		return fmt.Errorf("%s: %w: %w", op, ErrNoSuggestions, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// canonicalCountry prefers the catalog spelling but accepts any country.
func canonicalCountry(s string) string {
	s = strings.TrimSpace(s)
	if c, ok := models.LookupCountry(s); ok {
		return c.Name
	}
	return s
}

// NormalizeIngredients trims entries, drops blanks and removes
// case-insensitive duplicates, keeping the first spelling.
func NormalizeIngredients(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, it := range in {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

func validate(country string, ingredients []string) (string, []string, error) {
	country = canonicalCountry(country)
	if country == "" {
		return "", nil, invalid("country is required")
	}
	ingredients = NormalizeIngredients(ingredients)
	if len(ingredients) == 0 {
		return "", nil, invalid("at least one ingredient is required")
	}
	if len(ingredients) > MaxIngredients {
		return "", nil, invalid(fmt.Sprintf("at most %d ingredients are allowed", MaxIngredients))
	}
	return country, ingredients, nil
}

// SuggestMeals asks the model for 4-6 meals. Unknown difficulties become
// medium and extra meals are dropped.
func (s *Service) SuggestMeals(ctx context.Context, country string, ingredients []string) ([]models.MealSuggestion, error) {
	country, ingredients, err := validate(country, ingredients)
	if err != nil {
		return nil, err
	}

	var out struct {
		Meals []models.MealSuggestion `json:"meals"`
	}
	if err := s.llm.GenerateJSON(ctx, ai.MealsPrompt(country, ingredients), mealsMaxTokens, &out); err != nil {
		return nil, upstream("suggest meals", err)
	}

	meals := NormalizeMeals(out.Meals)
	if len(meals) == 0 {
		return nil, ErrNoSuggestions
	}
	if len(meals) < MinMeals {
		s.log.Warn().Int("count", len(meals)).Str("country", country).Msg("fewer meals than requested")
	}
	return meals, nil
}

func NormalizeMeals(in []models.MealSuggestion) []models.MealSuggestion {
	out := make([]models.MealSuggestion, 0, min(len(in), MaxMeals))
	for _, m := range in {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		m.Difficulty = models.Difficulty(strings.ToLower(strings.TrimSpace(string(m.Difficulty))))
		if !m.Difficulty.Valid() {
			m.Difficulty = models.DifficultyMedium
		}
		out = append(out, m)
		if len(out) == MaxMeals {
			break
		}
	}
	return out
}

// GetRecipe asks the model for the full recipe of a chosen meal.
func (s *Service) GetRecipe(ctx context.Context, meal string, ingredients []string, country string) (*models.Recipe, error) {
	meal = strings.TrimSpace(meal)
	if meal == "" {
		return nil, invalid("meal is required")
	}
	country, ingredients, err := validate(country, ingredients)
	if err != nil {
		return nil, err
	}

	var out struct {
		Recipe models.Recipe `json:"recipe"`
	}
	if err := s.llm.GenerateJSON(ctx, ai.RecipePrompt(meal, country, ingredients), recipeMaxTokens, &out); err != nil {
		return nil, upstream("get recipe", err)
	}

	r := out.Recipe
	if len(r.Steps) == 0 {
		return nil, ErrNoSuggestions
	}
	if strings.TrimSpace(r.Name) == "" {
		r.Name = meal
	}
	if r.Ingredients == nil {
		r.Ingredients = ingredients
	}
	return &r, nil
}

// SuggestRecipes forwards free-text ingredients to the alternate provider.
func (s *Service) SuggestRecipes(ctx context.Context, ingredients, country string) ([]models.RecipeIdea, error) {
	ingredients = strings.TrimSpace(ingredients)
	country = canonicalCountry(country)
	if ingredients == "" || country == "" {
		return nil, invalid("ingredients and country are required")
	}
	if s.recipes == nil {
		return nil, ai.ErrNotConfigured
	}
	ideas, err := s.recipes.SuggestRecipes(ctx, ingredients, country)
	if err != nil {
		return nil, upstream("suggest recipes", err)
	}
	return ideas, nil
}
