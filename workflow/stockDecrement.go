package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/montuvia/inventory_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StockDecrement is the total quantity of one ingredient consumed across the
// whole batch, to be subtracted from stock in a single update.
type StockDecrement struct {
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	TotalDecrement decimal.Decimal `json:"totalDecrement"`
}

// GroupSalesByRecipe buckets valid sales by recipe id so each recipe is
// fetched and expanded once no matter how many sales reference it.
func GroupSalesByRecipe(validSales []EnrichedSale) map[string][]EnrichedSale {
	grouped := make(map[string][]EnrichedSale)
	for _, sale := range validSales {
		if sale.RecipeId == nil || *sale.RecipeId == "" {
			continue
		}
		grouped[*sale.RecipeId] = append(grouped[*sale.RecipeId], sale)
	}
	return grouped
}

// CalculateStockDecrements expands each recipe's ingredient list against its
// sales and accumulates per-ingredient consumption. The result is an
// arithmetic sum over every contributing sale, so input order never matters.
//
// Reference problems degrade to warnings, never errors: a recipe the catalog
// does not know, or one with no ingredients ("inventory not tracked"),
// contributes nothing to any delta but its sales still get ledgered.
func CalculateStockDecrements(grouped map[string][]EnrichedSale, recipes map[string]*models.Recipe) (map[string]*StockDecrement, []ProcessingWarning) {
	decrements := make(map[string]*StockDecrement)
	var warnings []ProcessingWarning

	for _, recipeId := range sortedKeys(grouped) {
		sales := grouped[recipeId]
		recipe, ok := recipes[recipeId]
		if !ok {
			warnings = append(warnings, ProcessingWarning{
				RecipeId:   recipeId,
				RecipeName: sales[0].RecipeName,
				Message:    fmt.Sprintf("recipe %q not found in catalog; stock not decremented for its sales", sales[0].RecipeName),
			})
			continue
		}
		if len(recipe.Ingredients) == 0 {
			warnings = append(warnings, ProcessingWarning{
				RecipeId:   recipe.Id,
				RecipeName: recipe.Name,
				Message:    fmt.Sprintf("recipe %q has no ingredients; inventory not tracked for this recipe", recipe.Name),
			})
			continue
		}

		portions := decimal.NewFromInt(int64(recipe.Portions))
		if recipe.Portions < 1 {
			portions = decimal.NewFromInt(1)
		}

		for _, sale := range sales {
			portionsSold := sale.Quantity.Div(portions)

			for _, ingredient := range recipe.Ingredients {
				consumed := portionsSold.Mul(ingredient.Quantity)

				d, exists := decrements[ingredient.IngredientId]
				if !exists {
					d = &StockDecrement{
						Name: ingredient.Name,
						Unit: ingredient.Unit,
					}
					decrements[ingredient.IngredientId] = d
				}
				d.TotalDecrement = d.TotalDecrement.Add(consumed)
			}
		}
	}

	return decrements, warnings
}

// ApplyStockDecrements writes the aggregated decrements to ingredient stock,
// one ingredient at a time. Each ingredient is independent: a missing row or
// a failed write becomes a warning and the rest still get updated. There is
// no transaction spanning ingredients; consistency is per ingredient.
//
// The decrement runs server-side (current_stock = current_stock - ?) so a
// concurrent upload touching the same ingredient cannot lose an update to a
// read-modify-write race.
func ApplyStockDecrements(db *gorm.DB, logger *logrus.Logger, decrements map[string]*StockDecrement) (int, []ProcessingWarning) {
	updated := 0
	var warnings []ProcessingWarning

	for _, ingredientId := range sortedDecrementKeys(decrements) {
		d := decrements[ingredientId]

		res := db.Model(&models.Ingredient{}).
			Where("id = ?", ingredientId).
			Updates(map[string]interface{}{
				"current_stock": gorm.Expr("current_stock - ?", d.TotalDecrement),
				"last_updated":  time.Now().UTC(),
			})
		if res.Error != nil {
			logger.WithFields(logrus.Fields{
				"ingredientId": ingredientId,
				"ingredient":   d.Name,
			}).Warnf("stock update failed: %v", res.Error)
			warnings = append(warnings, ProcessingWarning{
				IngredientId:   ingredientId,
				IngredientName: d.Name,
				Message:        fmt.Sprintf("failed to update stock of %q: %v", d.Name, res.Error),
			})
			continue
		}
		if res.RowsAffected == 0 {
			warnings = append(warnings, ProcessingWarning{
				IngredientId:   ingredientId,
				IngredientName: d.Name,
				Message:        fmt.Sprintf("ingredient %q not found; stock not decremented", d.Name),
			})
			continue
		}

		updated++

		ingredient, err := models.GetIngredientById(db, ingredientId)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"ingredientId": ingredientId,
			}).Warnf("could not read back stock after decrement: %v", err)
			continue
		}
		if ingredient.CurrentStock.IsNegative() {
			newStock := ingredient.CurrentStock
			warnings = append(warnings, ProcessingWarning{
				IngredientId:   ingredientId,
				IngredientName: d.Name,
				NewStock:       &newStock,
				Unit:           d.Unit,
				Message:        fmt.Sprintf("stock of %q went negative (%s %s)", d.Name, newStock.StringFixed(2), d.Unit),
			})
		}
	}

	return updated, warnings
}

func sortedKeys(m map[string][]EnrichedSale) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedDecrementKeys(m map[string]*StockDecrement) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
