package salesfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/montuvia/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

// RawSale is one row of the Zig "Relatório de produtos vendidos" export,
// decoded into canonical fields. It is immutable once produced.
type RawSale struct {
	ZigSaleId      string          `json:"zigSaleId"`
	Sku            string          `json:"sku"`
	ProductNameZig string          `json:"productNameZig"`
	Category       string          `json:"category"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Quantity       decimal.Decimal `json:"quantity"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	Seller         string          `json:"seller"`
	Customer       string          `json:"customer"`
	SaleDate       *time.Time      `json:"saleDate"`
	Bar            string          `json:"bar"`

	// Extra keeps columns the normalization table does not know about, as
	// exported. Unknown headers pass through unchanged.
	Extra map[string]string `json:"extra,omitempty"`

	// Row is the 1-based row in the source file (header is row 1).
	Row int `json:"row"`
}

// RowError reports one row that could not be decoded. The row is excluded
// from Sales; the rest of the file still parses.
type RowError struct {
	Row   int    `json:"row"`
	Sku   string `json:"sku,omitempty"`
	Error string `json:"error"`
}

// Result is the parse outcome for one file. TotalRows counts every non-empty
// data row, so TotalRows == len(Sales) + len(Errors).
type Result struct {
	Sales     []RawSale  `json:"sales"`
	TotalRows int        `json:"totalRows"`
	Errors    []RowError `json:"parseErrors"`
}

// StructuralError aborts the whole parse: the file as a whole is unusable
// (required columns missing). No partial parse is attempted.
type StructuralError struct {
	Message        string   `json:"message"`
	MissingColumns []string `json:"missingColumns,omitempty"`
	FoundColumns   []string `json:"foundColumns,omitempty"`
}

func (e *StructuralError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("%s: missing %s", e.Message, strings.Join(e.MissingColumns, ", "))
	}
	return e.Message
}

// columnNames maps the header variants Zig has been seen exporting onto
// canonical field names. "Valor Unitáro" is a recurring typo in the export.
var columnNames = map[string]string{
	"id":                "zigSaleId",
	"SKU":               "sku",
	"Nome do Produto":   "productNameZig",
	"Categoria":         "category",
	"Valor Unitário":    "unitPrice",
	"Valor Unitáro":     "unitPrice",
	"Quantidade":        "quantity",
	"Valor de Desconto": "discountValue",
	"Vendedor":          "seller",
	"Cliente":           "customer",
	"Data":              "saleDate",
	"Valor total":       "totalValue",
	"Bar":               "bar",
	"Data do Evento":    "eventDate",
}

// requiredColumns are the Zig headers (pre-normalization) a usable export
// must carry; reported verbatim so operators can check the file they
// exported.
var requiredColumns = []string{"SKU", "Nome do Produto", "Quantidade", "Data"}

// dateFormats is tried in order; first match wins. Brazil format first,
// then ISO variants.
var dateFormats = []string{
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

func normalizeColumnName(col string) string {
	if canonical, ok := columnNames[col]; ok {
		return canonical
	}
	return col
}

// ParseDate converts one exported date cell to a normalized time. Empty
// cells are not an error; they yield nil and the validator decides what
// that means for the row.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", value)
}

// Parse reads one sales export and returns its rows in canonical form.
//
// Structural problems (file missing, unsupported extension, undecodable
// container, required columns absent) return an error and no result. Row
// problems never abort the file: a row that cannot be decoded is recorded
// in Result.Errors and excluded from Result.Sales. Value-level checks
// (empty SKU, non-positive quantity, missing date) are the validation
// stage's job; such rows parse fine here.
func Parse(filePath string) (*Result, error) {
	rows, err := readTable(filePath)
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func readTable(filePath string) ([][]string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx", ".xls":
		return readWorkbook(filePath)
	case ".csv":
		return readCSV(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format %q: use XLSX, XLS or CSV", filepath.Ext(filePath))
	}
}

func readCSV(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Tolerate ragged exports: short rows pad with "", stray quotes pass.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func parseRows(rows [][]string) (*Result, error) {
	result := &Result{
		Sales:  []RawSale{},
		Errors: []RowError{},
	}
	if len(rows) == 0 {
		return nil, &StructuralError{Message: "file is empty"}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	if missing := missingRequiredColumns(headers); len(missing) > 0 {
		return nil, &StructuralError{
			Message:        "required columns are missing; check that this is the Zig sold-products report",
			MissingColumns: missing,
			FoundColumns:   headers,
		}
	}

	for i, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}
		result.TotalRows++
		rowNumber := i + 2 // header is row 1

		sale, err := parseRow(headers, row, rowNumber)
		if err != nil {
			result.Errors = append(result.Errors, RowError{
				Row:   rowNumber,
				Sku:   cellFor(headers, row, "SKU"),
				Error: err.Error(),
			})
			continue
		}
		result.Sales = append(result.Sales, *sale)
	}

	return result, nil
}

func missingRequiredColumns(headers []string) []string {
	found := make(map[string]bool, len(headers))
	for _, h := range headers {
		found[h] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !found[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func parseRow(headers []string, row []string, rowNumber int) (*RawSale, error) {
	sale := &RawSale{Row: rowNumber}

	for i, header := range headers {
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}

		switch normalizeColumnName(header) {
		case "zigSaleId":
			sale.ZigSaleId = value
		case "sku":
			sale.Sku = value
		case "productNameZig":
			sale.ProductNameZig = value
		case "category":
			sale.Category = value
		case "seller":
			sale.Seller = value
		case "customer":
			sale.Customer = value
		case "bar":
			sale.Bar = value
		case "unitPrice":
			d, err := parseNumericCell(value)
			if err != nil {
				return nil, fmt.Errorf("invalid unit price %q", value)
			}
			sale.UnitPrice = d
		case "quantity":
			d, err := parseNumericCell(value)
			if err != nil {
				return nil, fmt.Errorf("invalid quantity %q", value)
			}
			sale.Quantity = d
		case "totalValue":
			d, err := parseNumericCell(value)
			if err != nil {
				return nil, fmt.Errorf("invalid total value %q", value)
			}
			sale.TotalValue = d
		case "discountValue":
			d, err := parseNumericCell(value)
			if err != nil {
				return nil, fmt.Errorf("invalid discount value %q", value)
			}
			sale.DiscountValue = d
		case "saleDate":
			t, err := ParseDate(value)
			if err != nil {
				return nil, err
			}
			sale.SaleDate = t
		default:
			if sale.Extra == nil {
				sale.Extra = make(map[string]string)
			}
			sale.Extra[header] = value
		}
	}

	return sale, nil
}

// parseNumericCell decodes one numeric cell. Blank defaults to zero;
// anything non-blank must be a number.
func parseNumericCell(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return utils.ParseDecimal(value)
}

func cellFor(headers []string, row []string, header string) string {
	for i, h := range headers {
		if h == header && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
