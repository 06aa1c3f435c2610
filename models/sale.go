package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is the append-only ledger entry for one processed sale row. It is
// written once by the upload pipeline and never updated; reporting reads it
// regardless of whether the sale moved any stock.
type Sale struct {
	Id       string `gorm:"primaryKey;size:40" json:"id"`
	UploadId string `gorm:"size:60;index" json:"uploadId"`

	// Original Zig export fields
	ZigSaleId      string          `gorm:"size:100" json:"zigSaleId"`
	Sku            string          `gorm:"size:100;index" json:"sku"`
	ProductNameZig string          `gorm:"size:255" json:"productNameZig"`
	Category       string          `gorm:"size:100" json:"category"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,6)" json:"unitPrice"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,6)" json:"quantity"`
	TotalValue     decimal.Decimal `gorm:"type:decimal(20,6)" json:"totalValue"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(20,6)" json:"discountValue"`
	Seller         string          `gorm:"size:255" json:"seller"`
	Customer       string          `gorm:"size:255" json:"customer"`
	SaleDate       *time.Time      `gorm:"index" json:"saleDate"`
	Bar            string          `gorm:"size:255" json:"bar"`

	// Enriched from the mapping table
	RecipeId          string      `gorm:"size:40;index" json:"recipeId"`
	RecipeName        string      `gorm:"size:255" json:"recipeName"`
	MappingConfidence float64     `json:"mappingConfidence"`
	ProductType       ProductType `gorm:"size:30" json:"productType"`

	// StockDecremented records that this sale's consumption effect, if any,
	// has been accounted for. It does not mean stock necessarily changed.
	StockDecremented bool      `json:"stockDecremented"`
	CreatedAt        time.Time `json:"createdAt"`
}

func GetSalesByUploadId(db *gorm.DB, uploadId string) ([]Sale, error) {
	var sales []Sale
	if err := db.Where("upload_id = ?", uploadId).Order("sale_date, id").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
