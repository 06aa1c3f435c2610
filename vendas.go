package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/montuvia/inventory_backend/config"
	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/utils"
	"github.com/montuvia/inventory_backend/workflow"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

var allowedUploadExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

func uploadsDir() string {
	dir := strings.TrimSpace(os.Getenv("UPLOADS_DIR"))
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

// uploadSalesHandler receives one Zig export, stores it, creates the upload
// status row and runs the pipeline in-process. The response is the same
// consolidated result the CLI prints.
func uploadSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing form file 'file'"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload size limit"})
			return
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !allowedUploadExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q: use XLSX, XLS or CSV", ext)})
			return
		}

		uploadId := utils.GenerateUploadId()
		dir := uploadsDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			config.LogError(logger, "vendas", "uploadSalesHandler", "creating uploads dir", dir, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
			return
		}
		storedPath := filepath.Join(dir, uploadId+ext)
		if err := c.SaveUploadedFile(fileHeader, storedPath); err != nil {
			config.LogError(logger, "vendas", "uploadSalesHandler", "saving upload", storedPath, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
			return
		}

		if err := models.UpdateSalesUploadStatus(db, uploadId, models.UploadStatusPending, map[string]interface{}{
			"filename":    fileHeader.Filename,
			"storage_url": storedPath,
			"uploaded_by": c.GetHeader("X-User-Id"),
		}); err != nil {
			config.LogError(logger, "vendas", "uploadSalesHandler", "creating upload row", uploadId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register upload"})
			return
		}

		result := workflow.ProcessSalesUpload(db, logger, storedPath, uploadId)

		status := http.StatusOK
		if result.Status == models.UploadStatusFailed {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, result)
	}
}

func listUploadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}
		uploads, err := models.GetRecentSalesUploads(db, 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list uploads"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"uploads": uploads})
	}
}

func getUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}
		upload, err := models.GetSalesUploadById(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

func listSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}
		uploadId := strings.TrimSpace(c.Query("uploadId"))
		if uploadId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "uploadId query parameter is required"})
			return
		}
		sales, err := models.GetSalesByUploadId(db, uploadId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sales"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"uploadId": uploadId, "sales": sales})
	}
}
