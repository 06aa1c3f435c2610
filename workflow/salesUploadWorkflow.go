package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/salesfile"
	"github.com/montuvia/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// obtainUploadLock is swappable so lock contention can be exercised in
// tests without a Redis instance.
var obtainUploadLock = utils.ObtainUploadLock

type ParseStep struct {
	TotalRows   int                  `json:"totalRows"`
	SalesParsed int                  `json:"salesParsed"`
	ParseErrors int                  `json:"parseErrors"`
	RowErrors   []salesfile.RowError `json:"rowErrors,omitempty"`
}

type ValidateStep struct {
	Total        int      `json:"total"`
	Valid        int      `json:"valid"`
	Invalid      int      `json:"invalid"`
	UnmappedSkus []string `json:"unmappedSkus"`
}

type UpdateStockStep struct {
	SalesCreated       int                        `json:"salesCreated"`
	TotalRevenue       decimal.Decimal            `json:"totalRevenue"`
	IngredientsUpdated int                        `json:"ingredientsUpdated"`
	StockDecrements    map[string]decimal.Decimal `json:"stockDecrements"`
}

type UploadSteps struct {
	Parse       *ParseStep       `json:"parse,omitempty"`
	Validate    *ValidateStep    `json:"validate,omitempty"`
	UpdateStock *UpdateStockStep `json:"updateStock,omitempty"`
}

// UploadResult is the consolidated outcome of one upload run: the JSON the
// CLI prints and the HTTP surface returns. Errors are fatal and
// stage-aborting; Warnings are informational, so an operator can tell
// "upload failed, nothing happened" from "upload completed, N items need
// attention" at a glance.
type UploadResult struct {
	UploadId         string              `json:"uploadId"`
	Status           models.UploadStatus `json:"status"`
	Steps            UploadSteps         `json:"steps"`
	Errors           []ProcessingError   `json:"errors"`
	Warnings         []ProcessingWarning `json:"warnings"`
	ProcessingTimeMs int64               `json:"processingTimeMs"`
}

// HasRowErrors reports whether any individual rows were rejected, either at
// parse or at validation. Callers use it for the process exit code.
func (r *UploadResult) HasRowErrors() bool {
	if r.Steps.Parse != nil && r.Steps.Parse.ParseErrors > 0 {
		return true
	}
	if r.Steps.Validate != nil && r.Steps.Validate.Invalid > 0 {
		return true
	}
	return false
}

// ProcessSalesUpload runs the whole pipeline for one exported file:
// parse -> validate/enrich -> aggregate + decrement stock -> write ledger,
// updating the persistent upload status as each stage completes. Stages are
// synchronous barriers; nothing downstream starts on partial output.
//
// Only structural failures (unusable file, store unreachable) fail the
// upload. Row-level rejections, unmapped SKUs, missing recipes or
// ingredients and per-ingredient write failures are recorded as data inside
// a completed result.
func ProcessSalesUpload(db *gorm.DB, logger *logrus.Logger, filePath string, uploadId string) *UploadResult {
	start := time.Now()
	result := &UploadResult{
		UploadId: uploadId,
		Status:   models.UploadStatusProcessing,
		Errors:   []ProcessingError{},
		Warnings: []ProcessingWarning{},
	}

	release, err := obtainUploadLock(context.Background(), uploadId, "workflow", "ProcessSalesUpload")
	if err != nil {
		// Another instance owns this upload. Leave the status row alone:
		// writing failed here would clobber the run that is actually doing
		// the work, and its completed merge would then be refused.
		result.Errors = append(result.Errors, ProcessingError{
			Step:    "lock",
			Message: err.Error(),
		})
		result.Status = models.UploadStatusFailed
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		logger.WithFields(logrus.Fields{"uploadId": uploadId}).Errorf("sales upload rejected: %v", err)
		return result
	}
	defer release()

	if err := models.UpdateSalesUploadStatus(db, uploadId, models.UploadStatusProcessing, nil); err != nil {
		return failUpload(db, logger, result, start, ProcessingError{
			Step:    "status",
			Message: fmt.Sprintf("could not mark upload as processing: %v", err),
		})
	}

	logger.WithFields(logrus.Fields{"uploadId": uploadId, "file": filePath}).Info("processing sales upload")

	// Stage 1: parse
	parseResult, err := salesfile.Parse(filePath)
	if err != nil {
		perr := ProcessingError{Step: "parse", Message: err.Error()}
		var structural *salesfile.StructuralError
		if errors.As(err, &structural) {
			perr.Message = structural.Message
			perr.MissingColumns = structural.MissingColumns
			perr.FoundColumns = structural.FoundColumns
		}
		return failUpload(db, logger, result, start, perr)
	}

	result.Steps.Parse = &ParseStep{
		TotalRows:   parseResult.TotalRows,
		SalesParsed: len(parseResult.Sales),
		ParseErrors: len(parseResult.Errors),
		RowErrors:   parseResult.Errors,
	}
	if len(parseResult.Errors) > 0 {
		result.Warnings = append(result.Warnings, ProcessingWarning{
			Message: fmt.Sprintf("%d rows could not be decoded and were skipped", len(parseResult.Errors)),
		})
	}
	mergeUploadStatus(db, logger, uploadId, models.UploadStatusProcessing, map[string]interface{}{
		"total_rows":   parseResult.TotalRows,
		"skipped_rows": len(parseResult.Errors),
	})
	logger.WithFields(logrus.Fields{"uploadId": uploadId, "rows": len(parseResult.Sales)}).Info("parse stage complete")

	// Stage 2: validate + enrich
	mappings, err := models.LoadProductMappings(db, logger)
	if err != nil {
		return failUpload(db, logger, result, start, ProcessingError{
			Step:    "validate",
			Message: fmt.Sprintf("could not load product mappings: %v", err),
		})
	}
	validation := ValidateSales(parseResult.Sales, mappings)

	result.Steps.Validate = &ValidateStep{
		Total:        validation.Stats.Total,
		Valid:        validation.Stats.Valid,
		Invalid:      validation.Stats.Invalid,
		UnmappedSkus: validation.Stats.UnmappedSkus,
	}
	if len(validation.Stats.UnmappedSkus) > 0 {
		result.Warnings = append(result.Warnings, ProcessingWarning{
			Message: fmt.Sprintf("%d SKUs are not mapped to recipes", len(validation.Stats.UnmappedSkus)),
			Skus:    validation.Stats.UnmappedSkus,
		})
	}
	mergeUploadStatus(db, logger, uploadId, models.UploadStatusProcessing, map[string]interface{}{
		"valid_rows":    validation.Stats.Valid,
		"invalid_rows":  validation.Stats.Invalid,
		"unmapped_skus": models.StringList(validation.Stats.UnmappedSkus),
	})
	logger.WithFields(logrus.Fields{
		"uploadId": uploadId,
		"valid":    validation.Stats.Valid,
		"invalid":  validation.Stats.Invalid,
	}).Info("validation stage complete")

	// Stage 3: aggregate consumption and decrement stock
	grouped := GroupSalesByRecipe(validation.ValidSales)
	recipeIds := make([]string, 0, len(grouped))
	for id := range grouped {
		recipeIds = append(recipeIds, id)
	}
	recipes, err := models.GetRecipesByIds(db, recipeIds)
	if err != nil {
		return failUpload(db, logger, result, start, ProcessingError{
			Step:    "update_stock",
			Message: fmt.Sprintf("could not fetch recipes: %v", err),
		})
	}

	decrements, aggWarnings := CalculateStockDecrements(grouped, recipes)
	result.Warnings = append(result.Warnings, aggWarnings...)

	ingredientsUpdated, stockWarnings := ApplyStockDecrements(db, logger, decrements)
	result.Warnings = append(result.Warnings, stockWarnings...)

	// Stage 4: write the ledger
	salesCreated, err := CreateSaleRecords(db, validation.ValidSales, uploadId)
	if err != nil {
		return failUpload(db, logger, result, start, ProcessingError{
			Step:    "ledger",
			Message: err.Error(),
		})
	}

	totalRevenue := batchRevenue(validation.ValidSales)
	decrementTotals := make(map[string]decimal.Decimal, len(decrements))
	for id, d := range decrements {
		decrementTotals[id] = d.TotalDecrement
	}
	result.Steps.UpdateStock = &UpdateStockStep{
		SalesCreated:       salesCreated,
		TotalRevenue:       totalRevenue,
		IngredientsUpdated: ingredientsUpdated,
		StockDecrements:    decrementTotals,
	}
	if validation.Stats.Valid == 0 {
		result.Warnings = append(result.Warnings, ProcessingWarning{
			Message: "no valid sales to process",
		})
	}

	result.Status = models.UploadStatusCompleted
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	mergeUploadStatus(db, logger, uploadId, models.UploadStatusCompleted, map[string]interface{}{
		"sales_created":       salesCreated,
		"total_revenue":       totalRevenue,
		"ingredients_updated": ingredientsUpdated,
		"stock_updated":       true,
		"warnings":            marshalBlob(result.Warnings),
		"errors":              marshalBlob(result.Errors),
		"processing_time_ms":  result.ProcessingTimeMs,
	})

	logger.WithFields(logrus.Fields{
		"uploadId":           uploadId,
		"salesCreated":       salesCreated,
		"ingredientsUpdated": ingredientsUpdated,
		"warnings":           len(result.Warnings),
		"durationMs":         result.ProcessingTimeMs,
	}).Info("sales upload complete")

	return result
}

// batchRevenue sums each sale's total value, falling back to unit price x
// quantity when the export had no total column.
func batchRevenue(validSales []EnrichedSale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range validSales {
		if sale.TotalValue.Sign() != 0 {
			total = total.Add(sale.TotalValue)
			continue
		}
		total = total.Add(sale.UnitPrice.Mul(sale.Quantity))
	}
	return total
}

func failUpload(db *gorm.DB, logger *logrus.Logger, result *UploadResult, start time.Time, perr ProcessingError) *UploadResult {
	result.Errors = append(result.Errors, perr)
	result.Status = models.UploadStatusFailed
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	mergeUploadStatus(db, logger, result.UploadId, models.UploadStatusFailed, map[string]interface{}{
		"errors":             marshalBlob(result.Errors),
		"warnings":           marshalBlob(result.Warnings),
		"processing_time_ms": result.ProcessingTimeMs,
	})

	logger.WithFields(logrus.Fields{
		"uploadId": result.UploadId,
		"step":     perr.Step,
	}).Errorf("sales upload failed: %s", perr.Message)

	return result
}

// mergeUploadStatus persists stage progress. Status bookkeeping must never
// abort the pipeline itself, so failures here are logged and swallowed.
func mergeUploadStatus(db *gorm.DB, logger *logrus.Logger, uploadId string, status models.UploadStatus, extra map[string]interface{}) {
	if err := models.UpdateSalesUploadStatus(db, uploadId, status, extra); err != nil {
		logger.WithFields(logrus.Fields{"uploadId": uploadId, "status": status}).
			Warnf("could not persist upload status: %v", err)
	}
}

func marshalBlob(v interface{}) models.JSONBlob {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return models.JSONBlob(b)
}
