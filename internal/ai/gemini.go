package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"google.golang.org/genai"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

// Gemini is the alternate recipe provider.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	breaker *Breaker
}

// NewGemini builds a client from config. Without an API key every call
// returns ErrNotConfigured. baseURL is only set in tests.
func NewGemini(ctx context.Context, cfg config.AIConfig, baseURL string) (*Gemini, error) {
	g := &Gemini{
		model:   cfg.GeminiModel,
		timeout: cfg.RequestTimeout,
		breaker: NewBreaker("gemini", cfg.BreakerFailures, cfg.BreakerTimeout),
	}
	if cfg.GeminiAPIKey == "" {
		return g, nil
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Configured() bool { return g.client != nil }

var recipeIdeasSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recipeName":   {Type: genai.TypeString},
			"ingredients":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"instructions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"cookingTime":  {Type: genai.TypeString},
		},
		Required: []string{"recipeName", "ingredients", "instructions", "cookingTime"},
	},
}

// SuggestRecipes returns authentic dishes from country that use only the
// listed ingredients.
func (g *Gemini) SuggestRecipes(ctx context.Context, ingredients, country string) ([]models.RecipeIdea, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	var ideas []models.RecipeIdea
	err := g.breaker.Do("recipes", func() error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model,
			genai.Text(RecipeIdeasPrompt(ingredients, country)),
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
				ResponseSchema:   recipeIdeasSchema,
			})
		if err != nil {
			return fmt.Errorf("generate content: %w", err)
		}
		ideas, err = parseRecipeIdeas(resp.Text())
		return err
	})
	if err != nil {
		return nil, err
	}
	return ideas, nil
}

func parseRecipeIdeas(text string) ([]models.RecipeIdea, error) {
	text = strings.TrimSpace(text)
	// some models still fence JSON output
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrBadResponse)
	}
	ideas := []models.RecipeIdea{}
	if err := json.Unmarshal([]byte(text), &ideas); err != nil {
		return nil, fmt.Errorf("%w: decode recipe ideas: %v", ErrBadResponse, err)
	}
	return ideas, nil
}
