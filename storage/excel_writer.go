package storage

import (
	"fmt"
	"regexp"

	"github.com/xuri/excelize/v2"

	"nhatot-market/models"
)

// illegalSheetChars are the characters Excel forbids in sheet names.
var illegalSheetChars = regexp.MustCompile(`[\\/?*\[\]]`)

const maxSheetNameLen = 31

// CleanSheetName replaces characters illegal in spreadsheet sheet names and
// truncates to the spreadsheet limit. Truncation counts characters, not
// bytes: sheet names here carry Vietnamese district and category labels, and
// slicing bytes could split a rune into invalid UTF-8 — itself an illegal
// sheet name.
func CleanSheetName(name string) string {
	cleaned := illegalSheetChars.ReplaceAllString(name, "-")
	if runes := []rune(cleaned); len(runes) > maxSheetNameLen {
		cleaned = string(runes[:maxSheetNameLen])
	}
	return cleaned
}

// columnWidths fixes the display width of each canonical column in the
// snapshot workbook; unlisted columns fall back to defaultColumnWidth.
var columnWidths = map[string]float64{
	"city":          14,
	"category":      22,
	"category_code": 14,

	"title": 100,

	"price_string":         15,
	"price":                15,
	"price_million_per_m2": 18,
	"area":                 12,

	"ward_name":     24,
	"district_name": 24,

	"crawl_time": 20,

	"link": 200,
}

const defaultColumnWidth = 18

// writeExcelSnapshot renders the already-ordered snapshot table as a
// formatted workbook: frozen header row, auto-filter, centered header cells
// and fixed per-column widths. Purely a rendering of the canonical table —
// the CSV stays the machine-readable artifact.
func writeExcelSnapshot(path, sheet string, header []string, listings []*models.Listing) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = CleanSheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, l := range listings {
		if err := setRow(f, sheet, i+2, snapshotRow(l, header)); err != nil {
			return err
		}
	}

	if err := formatHeader(f, sheet, len(header), len(listings)+1); err != nil {
		return err
	}

	for i, col := range header {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("xlsx: column name: %w", err)
		}
		width, ok := columnWidths[col]
		if !ok {
			width = defaultColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("xlsx: set width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", row, err)
	}
	return nil
}

// formatHeader freezes the header row, enables the auto-filter over the used
// range and centers the header cells.
func formatHeader(f *excelize.File, sheet string, cols, rows int) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx: freeze header: %w", err)
	}

	lastCell, err := excelize.CoordinatesToCellName(cols, rows)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
		return fmt.Errorf("xlsx: auto filter: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}
	headerEnd, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", headerEnd, style); err != nil {
		return fmt.Errorf("xlsx: style header: %w", err)
	}
	return nil
}
