package reports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"nhatot-market/models"
)

func fptr(f float64) *float64 { return &f }

func TestDealsTableProjection(t *testing.T) {
	deals := []models.Deal{
		{Title: "Nhà rẻ", District: "Ba Đình", Price: fptr(2e9), PricePerM2: 30, Area: fptr(60), Score: 0.6, Link: "l1"},
		{Title: "Không giá", District: "Đống Đa", Price: nil, PricePerM2: 40, Area: nil, Score: 0.7, Link: "l2"},
	}

	table := DealsTable(deals)
	wantHeader := []string{"title", "district", "price", "price_million_per_m2", "area", "deal_score", "link"}
	if len(table.Header) != len(wantHeader) {
		t.Fatalf("header: got %v", table.Header)
	}
	for i, h := range wantHeader {
		if table.Header[i] != h {
			t.Errorf("header[%d]: got %q, want %q", i, table.Header[i], h)
		}
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows: got %d", len(table.Rows))
	}
	if table.Rows[1][2] != nil {
		t.Errorf("nil price should stay an empty cell, got %v", table.Rows[1][2])
	}
}

func TestWriteWorkbookSkipsEmptyTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	tables := []Table{
		{Name: "Empty", Header: []string{"a"}},
		DealsTable([]models.Deal{{Title: "x", District: "A", PricePerM2: 10, Score: 0.5, Link: "l"}}),
	}

	if err := WriteWorkbook(path, tables); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 {
		t.Fatalf("sheets: got %v, want only the non-empty table", sheets)
	}
	if sheets[0] != "Tin giá tốt" {
		t.Errorf("sheet name: got %q", sheets[0])
	}

	got, err := f.GetCellValue(sheets[0], "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "x" {
		t.Errorf("A2: got %q, want %q", got, "x")
	}
}

func TestWriteWorkbookAllEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteWorkbook(path, []Table{{Name: "Empty"}}); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no workbook should be written when every table is empty")
	}
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")

	listings := []*models.Listing{
		{Price: fptr(2e9), PricePerM2: fptr(40), Link: "l1"},
		{Price: fptr(4e9), PricePerM2: fptr(60), Link: "l2"},
		{Price: nil, PricePerM2: nil, Link: "l3"},
	}
	deals := []models.Deal{
		{Title: "Nhà rẻ", District: "Ba Đình", Price: fptr(2e9), PricePerM2: 40, Score: 0.6, Link: "l1"},
	}

	if err := WriteSummary(path, "Hà Nội", listings, deals); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "Hà Nội") {
		t.Error("summary should name the city")
	}
	if !strings.Contains(text, "Tổng số tin: 3") {
		t.Errorf("summary should count all listings:\n%s", text)
	}
	// Average price over non-nil prices only: (2+4)/2 = 3.00 tỷ.
	if !strings.Contains(text, "3.00 tỷ") {
		t.Errorf("average price should exclude nil prices:\n%s", text)
	}
	if !strings.Contains(text, "Nhà rẻ") {
		t.Error("summary should list the top deals")
	}
}
