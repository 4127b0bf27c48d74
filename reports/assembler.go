package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/xuri/excelize/v2"

	"nhatot-market/models"
	"nhatot-market/storage"
)

// Table is one named report table ready for rendering. Cell values keep
// their Go types so numeric columns stay numeric in the workbook.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

func (t Table) empty() bool { return len(t.Rows) == 0 }

// DistrictStatsTable converts the by-district market view into a table.
func DistrictStatsTable(stats []models.DistrictStats) Table {
	t := Table{
		Name:   "Giá theo quận",
		Header: []string{"district", "listings", "avg_price", "median_price", "avg_price_m2", "median_price_m2"},
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{
			s.District, s.Listings,
			numCell(s.AvgPrice), numCell(s.MedianPrice),
			numCell(s.AvgPriceM2), numCell(s.MedianPriceM2),
		})
	}
	return t
}

// CategoryStatsTable converts the district x category view into a table.
func CategoryStatsTable(stats []models.CategoryStats) Table {
	t := Table{
		Name:   "Giá m2 theo quận và loại",
		Header: []string{"district", "category", "listings", "avg_price_m2", "median_price_m2"},
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{
			s.District, s.Category, s.Listings, s.AvgPriceM2, s.MedianPriceM2,
		})
	}
	return t
}

// SupplyTable converts the supply cross-tab; one column per category plus a
// TOTAL column, mirroring the pivot's shape.
func SupplyTable(supply models.SupplyTable) Table {
	t := Table{Name: "Nguồn cung theo quận"}
	t.Header = append([]string{"district"}, supply.Categories...)
	t.Header = append(t.Header, "TOTAL")
	for _, row := range supply.Rows {
		cells := make([]interface{}, 0, len(row.Counts)+2)
		cells = append(cells, row.District)
		for _, n := range row.Counts {
			cells = append(cells, n)
		}
		cells = append(cells, row.Total)
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// TrendTable converts daily listing counts into a table.
func TrendTable(trend []models.DailyCount) Table {
	t := Table{
		Name:   "Xu hướng 7 ngày",
		Header: []string{"date", "listing_count"},
	}
	for _, d := range trend {
		t.Rows = append(t.Rows, []interface{}{d.Date.Format("2006-01-02"), d.Count})
	}
	return t
}

// DealsTable converts ranked deals into a table, best deals first.
func DealsTable(deals []models.Deal) Table {
	t := Table{
		Name:   "Tin giá tốt",
		Header: []string{"title", "district", "price", "price_million_per_m2", "area", "deal_score", "link"},
	}
	for _, d := range deals {
		t.Rows = append(t.Rows, []interface{}{
			d.Title, d.District, numCell(d.Price), d.PricePerM2, numCell(d.Area), d.Score, d.Link,
		})
	}
	return t
}

// WriteWorkbook renders the named tables into one workbook, one sheet per
// non-empty table, with the standard formatting: sanitized sheet name,
// frozen header, auto-filter, centered header, auto column width capped
// at 40.
func WriteWorkbook(path string, tables []Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("reports: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	wrote := 0
	for _, t := range tables {
		if t.empty() {
			continue
		}
		sheet := storage.CleanSheetName(t.Name)
		if wrote == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("reports: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("reports: new sheet %q: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, t); err != nil {
			return err
		}
		wrote++
	}
	if wrote == 0 {
		return nil
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("reports: save workbook %q: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table) error {
	header := make([]interface{}, len(t.Header))
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("reports: write header: %w", err)
	}

	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("reports: cell name: %w", err)
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("reports: write row: %w", err)
		}
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if n := len(fmt.Sprint(v)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("reports: freeze header: %w", err)
	}

	lastCell, err := excelize.CoordinatesToCellName(len(t.Header), len(t.Rows)+1)
	if err != nil {
		return fmt.Errorf("reports: cell name: %w", err)
	}
	if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
		return fmt.Errorf("reports: auto filter: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("reports: header style: %w", err)
	}
	headerEnd, err := excelize.CoordinatesToCellName(len(t.Header), 1)
	if err != nil {
		return fmt.Errorf("reports: cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", headerEnd, style); err != nil {
		return fmt.Errorf("reports: style header: %w", err)
	}

	for i := range t.Header {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("reports: column name: %w", err)
		}
		width := float64(widths[i] + 2)
		if width > 40 {
			width = 40
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("reports: set width: %w", err)
		}
	}
	return nil
}

var summaryTemplate = template.Must(template.New("summary").Parse(
	`# {{.City}} – Báo cáo thị trường bất động sản

_Ngày lập: {{.Date}}_

## Tổng quan thị trường

- Tổng số tin: {{.Total}}
- Giá trung bình: {{printf "%.2f" .AvgPriceBillion}} tỷ
- Giá trung bình / m²: {{printf "%.1f" .AvgPriceM2}} triệu/m²

## Tin giá tốt

### Phương pháp xác định

- So sánh giá trên mỗi mét vuông (giá/m²) của từng tin với giá/m² trung vị của quận/huyện tương ứng.
- Chỉ giữ lại các tin có giá thấp hơn 25% so với mặt bằng chung của khu vực.

### Danh sách bất động sản giá tốt
{{range .Deals}}
- {{.Title}} | {{.District}} | {{printf "%.2f" .PriceBillion}} tỷ | {{printf "%.1f" .PriceM2}} triệu/m²{{end}}
`))

type summaryDeal struct {
	Title        string
	District     string
	PriceBillion float64
	PriceM2      float64
}

type summaryView struct {
	City            string
	Date            string
	Total           int
	AvgPriceBillion float64
	AvgPriceM2      float64
	Deals           []summaryDeal
}

// WriteSummary renders the narrative market summary for one city: overview
// totals plus the 5 best deals, as a Markdown document.
func WriteSummary(path, city string, listings []*models.Listing, deals []models.Deal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("reports: create output dir: %w", err)
	}

	view := summaryView{
		City:  city,
		Date:  time.Now().UTC().Format("2006-01-02"),
		Total: len(listings),
	}

	var priceSum, priceM2Sum float64
	var priceN, priceM2N int
	for _, l := range listings {
		if l.Price != nil {
			priceSum += *l.Price
			priceN++
		}
		if l.PricePerM2 != nil {
			priceM2Sum += *l.PricePerM2
			priceM2N++
		}
	}
	if priceN > 0 {
		view.AvgPriceBillion = priceSum / float64(priceN) / 1_000_000_000
	}
	if priceM2N > 0 {
		view.AvgPriceM2 = priceM2Sum / float64(priceM2N)
	}

	top := deals
	if len(top) > 5 {
		top = top[:5]
	}
	for _, d := range top {
		sd := summaryDeal{
			Title:    d.Title,
			District: d.District,
			PriceM2:  d.PricePerM2,
		}
		if d.Price != nil {
			sd.PriceBillion = *d.Price / 1_000_000_000
		}
		view.Deals = append(view.Deals, sd)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reports: create summary %q: %w", path, err)
	}
	defer f.Close()

	if err := summaryTemplate.Execute(f, view); err != nil {
		return fmt.Errorf("reports: render summary: %w", err)
	}
	return nil
}

// numCell renders a nullable numeric as a cell value; nil stays an empty
// cell rather than zero.
func numCell(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
