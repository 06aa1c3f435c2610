package workflow

import (
	"fmt"
	"time"

	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/utils"
	"gorm.io/gorm"
)

// saleInsertBatchSize caps one bulk insert. 500 matches the per-call write
// limit of the document store this data originally lived in; batching also
// keeps MySQL packet sizes sane on big uploads.
const saleInsertBatchSize = 500

// CreateSaleRecords persists one ledger entry per valid sale, in batches of
// saleInsertBatchSize with the final partial batch always flushed. Every
// entry gets a fresh id and marks stock as decremented: the sale's
// consumption effect, if any, has been accounted for by the time this runs.
func CreateSaleRecords(db *gorm.DB, validSales []EnrichedSale, uploadId string) (int, error) {
	return createSaleRecords(db, validSales, uploadId, saleInsertBatchSize)
}

func createSaleRecords(db *gorm.DB, validSales []EnrichedSale, uploadId string, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = saleInsertBatchSize
	}

	now := time.Now().UTC()
	records := make([]models.Sale, 0, len(validSales))
	for _, sale := range validSales {
		recipeId := ""
		if sale.RecipeId != nil {
			recipeId = *sale.RecipeId
		}
		records = append(records, models.Sale{
			Id:       utils.GenerateSaleId(),
			UploadId: uploadId,

			ZigSaleId:      sale.ZigSaleId,
			Sku:            sale.Sku,
			ProductNameZig: sale.ProductNameZig,
			Category:       sale.Category,
			UnitPrice:      sale.UnitPrice,
			Quantity:       sale.Quantity,
			TotalValue:     sale.TotalValue,
			DiscountValue:  sale.DiscountValue,
			Seller:         sale.Seller,
			Customer:       sale.Customer,
			SaleDate:       sale.SaleDate,
			Bar:            sale.Bar,

			RecipeId:          recipeId,
			RecipeName:        sale.RecipeName,
			MappingConfidence: sale.MappingConfidence,
			ProductType:       sale.ProductType,

			StockDecremented: true,
			CreatedAt:        now,
		})
	}

	created := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		if err := db.Create(&batch).Error; err != nil {
			return created, fmt.Errorf("ledger write failed at row %d: %w", start, err)
		}
		created += len(batch)
	}

	return created, nil
}
