package salesfile

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbook loads the first sheet of an XLSX/XLS export as a string
// table. Zig exports a single sheet; if someone hand-edited the workbook we
// still take the first sheet rather than guessing by name.
func readWorkbook(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %v", sheet, err)
	}
	return rows, nil
}
