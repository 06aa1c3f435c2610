package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe is the bill of materials for one sellable item. Portions says how
// many sold units one batch of the ingredient quantities yields.
type Recipe struct {
	Id                  string             `gorm:"primaryKey;size:40" json:"id"`
	Name                string             `gorm:"size:255;index" json:"name"`
	Category            string             `gorm:"size:100" json:"category"`
	Portions            int                `gorm:"default:1" json:"portions" validate:"gte=1"`
	ProductType         ProductType        `gorm:"size:30" json:"productType"`
	InventoryControlled bool               `json:"inventoryControlled"`
	Status              string             `gorm:"size:20;default:draft" json:"status"`
	NeedsReview         bool               `json:"needsReview"`
	Notes               string             `gorm:"type:text" json:"notes,omitempty"`
	Ingredients         []RecipeIngredient `gorm:"foreignKey:RecipeId;references:Id" json:"ingredients"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type RecipeIngredient struct {
	ID           int             `gorm:"primaryKey;autoIncrement" json:"-"`
	RecipeId     string          `gorm:"size:40;index" json:"-"`
	IngredientId string          `gorm:"size:40;index" json:"ingredientId"`
	Name         string          `gorm:"size:255" json:"name"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,6)" json:"quantity"`
	Unit         string          `gorm:"size:20" json:"unit"`
}

// GetRecipesByIds fetches the given recipes with their ingredient lists in
// one batched query. Ids are deduplicated so each recipe is fetched at most
// once per aggregation window; ids with no catalog row are simply absent
// from the result, callers decide whether that is a warning.
func GetRecipesByIds(db *gorm.DB, ids []string) (map[string]*Recipe, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	recipes := make(map[string]*Recipe, len(unique))
	if len(unique) == 0 {
		return recipes, nil
	}

	var rows []*Recipe
	if err := db.Preload("Ingredients").Where("id IN ?", unique).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		recipes[r.Id] = r
	}
	return recipes, nil
}
