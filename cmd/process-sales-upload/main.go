package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/montuvia/inventory_backend/config"
	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/utils"
	"github.com/montuvia/inventory_backend/workflow"
)

func main() {
	filePath := flag.String("file", "", "Required: path to the Zig sales export (XLSX/XLS/CSV)")
	uploadId := flag.String("upload-id", "", "Optional: upload id; generated when omitted")
	flag.Parse()

	// Also accept positional args: process-sales-upload <file> [upload-id]
	if strings.TrimSpace(*filePath) == "" && flag.NArg() > 0 {
		*filePath = flag.Arg(0)
		if flag.NArg() > 1 {
			*uploadId = flag.Arg(1)
		}
	}
	if strings.TrimSpace(*filePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: process-sales-upload -file <export.xlsx> [-upload-id <id>]")
		os.Exit(1)
	}
	if strings.TrimSpace(*uploadId) == "" {
		*uploadId = utils.GenerateUploadId()
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()

	result := workflow.ProcessSalesUpload(db, logger, *filePath, *uploadId)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.Status == models.UploadStatusFailed || result.HasRowErrors() {
		os.Exit(1)
	}
}
