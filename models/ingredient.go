package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredient is one stock-controlled item. CurrentStock may legitimately go
// negative: the pipeline reports overselling instead of blocking sales.
type Ingredient struct {
	Id           string          `gorm:"primaryKey;size:40" json:"id"`
	Name         string          `gorm:"size:255;index" json:"name"`
	Unit         string          `gorm:"size:20" json:"unit"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(20,6)" json:"currentStock"`
	MinStock     decimal.Decimal `gorm:"type:decimal(20,6)" json:"minStock"`
	LastUpdated  time.Time       `json:"lastUpdated"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func GetIngredientById(db *gorm.DB, id string) (*Ingredient, error) {
	var ingredient Ingredient
	if err := db.Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}
