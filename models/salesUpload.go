package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesUpload is the persistent status row for one upload run. Stage results
// merge into it as they complete, so a crash mid-run still leaves the last
// finished stage's numbers visible.
type SalesUpload struct {
	Id         string `gorm:"primaryKey;size:60" json:"id"`
	Filename   string `gorm:"size:255" json:"filename"`
	StorageUrl string `gorm:"size:512" json:"storageUrl,omitempty"`
	UploadedBy string `gorm:"size:100" json:"uploadedBy,omitempty"`

	Status UploadStatus `gorm:"size:20;default:pending;index" json:"status"`

	TotalRows    int        `json:"totalRows"`
	ValidRows    int        `json:"validRows"`
	InvalidRows  int        `json:"invalidRows"`
	SkippedRows  int        `json:"skippedRows"`
	UnmappedSkus StringList `gorm:"type:text" json:"unmappedSkus"`

	SalesCreated       int             `json:"salesCreated"`
	TotalRevenue       decimal.Decimal `gorm:"type:decimal(20,6)" json:"totalRevenue"`
	IngredientsUpdated int             `json:"ingredientsUpdated"`
	StockUpdated       bool            `json:"stockUpdated"`

	Errors   JSONBlob `gorm:"type:text" json:"errors,omitempty"`
	Warnings JSONBlob `gorm:"type:text" json:"warnings,omitempty"`

	ProcessingTimeMs int64      `json:"processingTimeMs"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

func GetSalesUploadById(db *gorm.DB, uploadId string) (*SalesUpload, error) {
	var upload SalesUpload
	if err := db.Where("id = ?", uploadId).First(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

func GetRecentSalesUploads(db *gorm.DB, limit int) ([]SalesUpload, error) {
	if limit <= 0 {
		limit = 50
	}
	var uploads []SalesUpload
	if err := db.Order("created_at DESC").Limit(limit).Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

// UpdateSalesUploadStatus merges a status transition plus extra fields into
// the upload row, creating it if it does not exist yet. Merge means extra
// only ever adds or overwrites the given columns; everything else on the row
// is kept. Transitions are monotonic: once completed or failed, a row never
// goes back to processing.
func UpdateSalesUploadStatus(db *gorm.DB, uploadId string, status UploadStatus, extra map[string]interface{}) error {
	if uploadId == "" {
		return errors.New("upload id is required")
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid upload status %q", status)
	}

	var current SalesUpload
	err := db.Where("id = ?", uploadId).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := SalesUpload{Id: uploadId, Status: status}
		if status == UploadStatusCompleted {
			now := time.Now().UTC()
			row.CompletedAt = &now
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
		if len(extra) > 0 {
			return db.Model(&SalesUpload{}).Where("id = ?", uploadId).Updates(extra).Error
		}
		return nil
	}
	if err != nil {
		return err
	}

	if !current.Status.CanTransitionTo(status) {
		return fmt.Errorf("upload %s is already %s; refusing transition to %s", uploadId, current.Status, status)
	}

	update := map[string]interface{}{
		"status": status,
	}
	if status == UploadStatusCompleted {
		update["completed_at"] = time.Now().UTC()
	}
	for k, v := range extra {
		update[k] = v
	}

	// Guard against a concurrent writer finishing the row between the read
	// above and this update.
	res := db.Model(&SalesUpload{}).
		Where("id = ? AND status NOT IN ?", uploadId, []UploadStatus{UploadStatusCompleted, UploadStatusFailed}).
		Updates(update)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && !current.Status.IsTerminal() {
		return fmt.Errorf("upload %s was finalized concurrently; refusing transition to %s", uploadId, status)
	}
	return nil
}
