package workflow

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newLockTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// A run that loses the upload lock must not touch the status row: the
// holder is mid-flight at processing, and a failed write from the loser
// would make the holder's completed merge be refused.
func TestProcessSalesUploadLockContentionLeavesRowAlone(t *testing.T) {
	db := newLockTestDB(t)
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	original := obtainUploadLock
	obtainUploadLock = func(ctx context.Context, uploadId string, moduleName string, functionName string) (func(), error) {
		return nil, utils.ErrorUploadLocked
	}
	t.Cleanup(func() { obtainUploadLock = original })

	const id = "upload_shared"
	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusProcessing, nil); err != nil {
		t.Fatalf("seed processing row: %v", err)
	}

	result := ProcessSalesUpload(db, quiet, "does-not-matter.csv", id)

	if result.Status != models.UploadStatusFailed {
		t.Fatalf("loser status = %s, want failed", result.Status)
	}
	if len(result.Errors) != 1 || result.Errors[0].Step != "lock" {
		t.Fatalf("loser errors = %+v, want one lock error", result.Errors)
	}

	upload, err := models.GetSalesUploadById(db, id)
	if err != nil {
		t.Fatalf("fetch upload: %v", err)
	}
	if upload.Status != models.UploadStatusProcessing {
		t.Fatalf("row status = %s, loser must not write to it", upload.Status)
	}

	// The holder's final merge still lands with its counters.
	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusCompleted, map[string]interface{}{
		"sales_created": 42,
		"stock_updated": true,
	}); err != nil {
		t.Fatalf("holder completion refused: %v", err)
	}
	upload, err = models.GetSalesUploadById(db, id)
	if err != nil {
		t.Fatalf("fetch upload: %v", err)
	}
	if upload.Status != models.UploadStatusCompleted || upload.SalesCreated != 42 || !upload.StockUpdated {
		t.Fatalf("holder result lost: %+v", upload)
	}
}
