package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/pikado"
)

// PikadoHandler serves the recipe wizard and the free-text recipe finder.
type PikadoHandler struct {
	svc *pikado.Service
}

func NewPikadoHandler(svc *pikado.Service) *PikadoHandler {
	return &PikadoHandler{svc: svc}
}

func (h *PikadoHandler) Countries(c *gin.Context) {
	c.JSON(http.StatusOK, pikado.Countries())
}

func (h *PikadoHandler) Ingredients(c *gin.Context) {
	c.JSON(http.StatusOK, pikado.Ingredients(c.Query("q")))
}

func (h *PikadoHandler) SuggestMeals(c *gin.Context) {
	var input models.SuggestMealsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	meals, err := h.svc.SuggestMeals(c.Request.Context(), input.Country, input.Ingredients)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (h *PikadoHandler) GetRecipe(c *gin.Context) {
	var input models.GetRecipeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	recipe, err := h.svc.GetRecipe(c.Request.Context(), input.Meal, input.Ingredients, input.Country)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// Recipes suggests recipes for free-text ingredients.
func (h *PikadoHandler) Recipes(c *gin.Context) {
	var input models.RecipesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ideas, err := h.svc.SuggestRecipes(c.Request.Context(), input.Ingredients, input.Country)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ideas)
}
