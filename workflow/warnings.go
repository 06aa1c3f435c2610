package workflow

import "github.com/shopspring/decimal"

// ProcessingWarning is a non-fatal finding from one pipeline stage: the
// upload still completes, but the item needs operator attention. Only the
// fields relevant to the warning are set.
type ProcessingWarning struct {
	Message        string           `json:"message"`
	IngredientId   string           `json:"ingredientId,omitempty"`
	IngredientName string           `json:"ingredientName,omitempty"`
	NewStock       *decimal.Decimal `json:"newStock,omitempty"`
	Unit           string           `json:"unit,omitempty"`
	RecipeId       string           `json:"recipeId,omitempty"`
	RecipeName     string           `json:"recipeName,omitempty"`
	Skus           []string         `json:"skus,omitempty"`
}

// ProcessingError is a fatal, stage-aborting failure. Its presence means the
// upload finished as failed and nothing downstream of the failing stage ran.
type ProcessingError struct {
	Step           string   `json:"step"`
	Message        string   `json:"message"`
	MissingColumns []string `json:"missingColumns,omitempty"`
	FoundColumns   []string `json:"foundColumns,omitempty"`
}
