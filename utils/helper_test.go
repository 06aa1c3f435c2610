package utils_test

import (
	"strings"
	"testing"

	"github.com/montuvia/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	d, err := utils.ParseDecimal("  123.45 ")
	if err != nil {
		t.Fatalf("ParseDecimal: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("got %s, want 123.45", d)
	}
	if _, err := utils.ParseDecimal(""); err == nil {
		t.Fatalf("empty string accepted")
	}
	if _, err := utils.ParseDecimal("12,5"); err == nil {
		t.Fatalf("comma decimal accepted")
	}
}

func TestGeneratedIds(t *testing.T) {
	saleId := utils.GenerateSaleId()
	if !strings.HasPrefix(saleId, "sale_") || len(saleId) != len("sale_")+20 {
		t.Fatalf("sale id = %q", saleId)
	}

	uploadId := utils.GenerateUploadId()
	if !strings.HasPrefix(uploadId, "upload_") {
		t.Fatalf("upload id = %q", uploadId)
	}
	if parts := strings.Split(uploadId, "_"); len(parts) != 3 || len(parts[2]) != 8 {
		t.Fatalf("upload id = %q, want upload_<ts>_<8 chars>", uploadId)
	}

	if utils.GenerateSaleId() == utils.GenerateSaleId() {
		t.Fatalf("sale ids must be unique")
	}
}
