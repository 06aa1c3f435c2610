package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProductMapping links one Zig SKU to a recipe. Rows are written by the
// mapping-maintenance tooling; the pipeline reads them and never mutates
// them.
type ProductMapping struct {
	Sku         string      `gorm:"primaryKey;size:100" json:"sku"`
	ProductName string      `gorm:"size:255" json:"productName"`
	RecipeId    *string     `gorm:"size:40;index" json:"recipeId"`
	RecipeName  string      `gorm:"size:255" json:"recipeName"`
	Confidence  float64     `json:"confidence" validate:"gte=0,lte=1"`
	ProductType ProductType `gorm:"size:30;default:dish" json:"productType" validate:"omitempty,oneof=dish beverage_bar beverage_industrial service"`
	NeedsReview bool        `json:"needsReview"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

var mappingValidate = validator.New()

// LoadProductMappings reads the whole mapping table into a map keyed by SKU.
// One full read per pipeline run; there is no partial reload. Rows that fail
// sanity validation (confidence outside [0,1], unknown product type) are
// still returned, since the mapping tooling owns fixing them, but each one
// is logged so operators notice.
func LoadProductMappings(db *gorm.DB, logger *logrus.Logger) (map[string]ProductMapping, error) {
	var rows []ProductMapping
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}

	mappings := make(map[string]ProductMapping, len(rows))
	for _, m := range rows {
		if m.Sku == "" {
			continue
		}
		if err := mappingValidate.Struct(m); err != nil {
			logger.WithFields(logrus.Fields{
				"sku":         m.Sku,
				"confidence":  m.Confidence,
				"productType": m.ProductType,
			}).Warnf("product mapping failed sanity validation: %v", err)
		}
		mappings[m.Sku] = m
	}
	return mappings, nil
}
