package presentation

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/chanfle/fpdf/internal/index"
)

// ExportEntriesXLSX writes the cache listing to an Excel workbook, one row
// per entry, matching the consolidated report the tool has always produced.
func ExportEntriesXLSX(entries []index.Entry, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Cache"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Position", "Identifier", "Original File", "Original Size", "Blob Size", "Mode", "Cached At"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, e := range entries {
		values := []interface{}{
			row + 1,
			e.Identifier,
			e.OriginalFileName,
			e.OriginalSize,
			e.BlobSize,
			string(e.ExtractionMode),
			e.CachedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
