package models_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/montuvia/inventory_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
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

func TestUpdateSalesUploadStatusCreatesRow(t *testing.T) {
	db := openTestDB(t)

	err := models.UpdateSalesUploadStatus(db, "upload_1", models.UploadStatusPending, map[string]interface{}{
		"filename": "vendas.xlsx",
	})
	if err != nil {
		t.Fatalf("UpdateSalesUploadStatus: %v", err)
	}

	upload, err := models.GetSalesUploadById(db, "upload_1")
	if err != nil {
		t.Fatalf("GetSalesUploadById: %v", err)
	}
	if upload.Status != models.UploadStatusPending || upload.Filename != "vendas.xlsx" {
		t.Fatalf("upload = %+v", upload)
	}
	if upload.CompletedAt != nil {
		t.Fatalf("pending upload should not have a completion time")
	}
}

// Each stage merges its own columns; nothing written earlier is lost.
func TestUpdateSalesUploadStatusMergesAcrossStages(t *testing.T) {
	db := openTestDB(t)
	id := "upload_merge"

	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusPending, map[string]interface{}{
		"filename": "vendas.csv",
	}); err != nil {
		t.Fatalf("pending: %v", err)
	}
	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusProcessing, map[string]interface{}{
		"total_rows":   3,
		"skipped_rows": 0,
	}); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusProcessing, map[string]interface{}{
		"valid_rows":    1,
		"invalid_rows":  2,
		"unmapped_skus": models.StringList{"SKU-404"},
	}); err != nil {
		t.Fatalf("validation merge: %v", err)
	}
	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusCompleted, map[string]interface{}{
		"sales_created": 1,
		"total_revenue": decimal.RequireFromString("50.00"),
		"stock_updated": true,
	}); err != nil {
		t.Fatalf("completed: %v", err)
	}

	upload, err := models.GetSalesUploadById(db, id)
	if err != nil {
		t.Fatalf("GetSalesUploadById: %v", err)
	}
	if upload.Status != models.UploadStatusCompleted {
		t.Fatalf("status = %s", upload.Status)
	}
	if upload.Filename != "vendas.csv" {
		t.Fatalf("filename lost in merge: %+v", upload)
	}
	if upload.TotalRows != 3 || upload.ValidRows != 1 || upload.InvalidRows != 2 {
		t.Fatalf("row counts lost in merge: %+v", upload)
	}
	if len(upload.UnmappedSkus) != 1 || upload.UnmappedSkus[0] != "SKU-404" {
		t.Fatalf("unmapped skus = %v", upload.UnmappedSkus)
	}
	if upload.SalesCreated != 1 || !upload.TotalRevenue.Equal(decimal.RequireFromString("50.00")) || !upload.StockUpdated {
		t.Fatalf("completion fields = %+v", upload)
	}
	if upload.CompletedAt == nil {
		t.Fatalf("completed upload missing completion time")
	}
}

func TestUpdateSalesUploadStatusRefusesBackwardTransitions(t *testing.T) {
	db := openTestDB(t)
	id := "upload_final"

	if err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusCompleted, nil); err != nil {
		t.Fatalf("completed: %v", err)
	}

	err := models.UpdateSalesUploadStatus(db, id, models.UploadStatusProcessing, nil)
	if err == nil || !strings.Contains(err.Error(), "refusing transition") {
		t.Fatalf("err = %v, want refusal", err)
	}

	upload, fetchErr := models.GetSalesUploadById(db, id)
	if fetchErr != nil {
		t.Fatalf("GetSalesUploadById: %v", fetchErr)
	}
	if upload.Status != models.UploadStatusCompleted {
		t.Fatalf("status moved backwards to %s", upload.Status)
	}

	if err := models.UpdateSalesUploadStatus(db, "upload_dead", models.UploadStatusFailed, nil); err != nil {
		t.Fatalf("failed: %v", err)
	}
	if err := models.UpdateSalesUploadStatus(db, "upload_dead", models.UploadStatusCompleted, nil); err == nil {
		t.Fatalf("failed upload must not become completed")
	}
}

func TestUpdateSalesUploadStatusValidation(t *testing.T) {
	db := openTestDB(t)
	if err := models.UpdateSalesUploadStatus(db, "", models.UploadStatusPending, nil); err == nil {
		t.Fatalf("empty upload id accepted")
	}
	if err := models.UpdateSalesUploadStatus(db, "upload_x", models.UploadStatus("archived"), nil); err == nil {
		t.Fatalf("unknown status accepted")
	}
}

func TestUploadStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to models.UploadStatus
		want     bool
	}{
		{models.UploadStatusPending, models.UploadStatusProcessing, true},
		{models.UploadStatusPending, models.UploadStatusFailed, true},
		{models.UploadStatusProcessing, models.UploadStatusCompleted, true},
		{models.UploadStatusProcessing, models.UploadStatusFailed, true},
		{models.UploadStatusProcessing, models.UploadStatusPending, false},
		{models.UploadStatusCompleted, models.UploadStatusProcessing, false},
		{models.UploadStatusFailed, models.UploadStatusCompleted, false},
		{models.UploadStatusCompleted, models.UploadStatusCompleted, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
