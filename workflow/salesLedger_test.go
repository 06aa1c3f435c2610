package workflow_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/workflow"
	"gorm.io/gorm"
)

func TestCreateSaleRecordsWritesLedger(t *testing.T) {
	db := openTestDB(t)

	sales := []workflow.EnrichedSale{enrichedSale("rec_caipirinha", "2")}
	sales[0].RecipeName = "Caipirinha"
	sales[0].MappingConfidence = 0.95
	sales[0].ProductType = models.ProductTypeBeverageBar

	created, err := workflow.CreateSaleRecords(db, sales, "upload_test_1")
	if err != nil {
		t.Fatalf("CreateSaleRecords: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	rows, err := models.GetSalesByUploadId(db, "upload_test_1")
	if err != nil {
		t.Fatalf("GetSalesByUploadId: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if !strings.HasPrefix(row.Id, "sale_") {
		t.Fatalf("id = %q, want sale_ prefix", row.Id)
	}
	if row.UploadId != "upload_test_1" || row.RecipeId != "rec_caipirinha" || row.RecipeName != "Caipirinha" {
		t.Fatalf("ledger row = %+v", row)
	}
	if !row.StockDecremented {
		t.Fatalf("ledger row should mark stock as decremented")
	}
	if row.SaleDate == nil {
		t.Fatalf("sale date lost on the way to the ledger")
	}
}

// 1200 sales must land in exactly three inserts: 500 + 500 + 200, with the
// final partial batch flushed.
func TestCreateSaleRecordsBatches(t *testing.T) {
	db := openTestDB(t)

	inserts := 0
	err := db.Callback().Create().After("gorm:create").Register("count_sale_inserts", func(tx *gorm.DB) {
		if tx.Statement != nil && tx.Statement.Table == "sales" {
			inserts++
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	sales := make([]workflow.EnrichedSale, 0, 1200)
	for i := 0; i < 1200; i++ {
		sale := enrichedSale("rec_caipirinha", "1")
		sale.ZigSaleId = fmt.Sprintf("z%d", i)
		sales = append(sales, sale)
	}

	created, err := workflow.CreateSaleRecords(db, sales, "upload_batch")
	if err != nil {
		t.Fatalf("CreateSaleRecords: %v", err)
	}
	if created != 1200 {
		t.Fatalf("created = %d, want 1200", created)
	}
	if inserts != 3 {
		t.Fatalf("inserts = %d, want 3", inserts)
	}

	var count int64
	if err := db.Model(&models.Sale{}).Where("upload_id = ?", "upload_batch").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1200 {
		t.Fatalf("persisted rows = %d, want 1200", count)
	}
}

func TestCreateSaleRecordsEmpty(t *testing.T) {
	db := openTestDB(t)

	created, err := workflow.CreateSaleRecords(db, nil, "upload_empty")
	if err != nil {
		t.Fatalf("CreateSaleRecords: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
}
