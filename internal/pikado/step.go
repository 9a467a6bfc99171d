package pikado

import "fmt"

// Step is a stage of the recipe wizard. The flow is linear:
// country, ingredients, meals, recipe.
type Step string

const (
	StepCountry     Step = "country"
	StepIngredients Step = "ingredients"
	StepMeals       Step = "meals"
	StepRecipe      Step = "recipe"
)

var Steps = []Step{StepCountry, StepIngredients, StepMeals, StepRecipe}

func ParseStep(s string) (Step, error) {
	for _, st := range Steps {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown wizard step %q", s)
}

// Index is the step's position in the flow, or -1 when unknown.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following step; the last step has no successor.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i == len(Steps)-1 {
		return s, false
	}
	return Steps[i+1], true
}

// Prev returns the preceding step; the first step has no predecessor.
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return Steps[i-1], true
}

// StartOver always returns to the first step.
func (s Step) StartOver() Step { return StepCountry }

// Completed reports whether other comes before s in the flow.
func (s Step) Completed(other Step) bool {
	return other.Index() >= 0 && other.Index() < s.Index()
}
