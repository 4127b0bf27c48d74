package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"nhatot-market/models"
	"nhatot-market/utils"
)

// columnOrder is the fixed canonical column order of every persisted
// snapshot: identity → content → raw numerics → location → meta → key.
// Unknown columns are appended after this prefix, never interleaved.
var columnOrder = []string{
	"city",
	"category",
	"category_code",

	"title",

	"price_string",
	"price",
	"price_million_per_m2",
	"area",

	"ward_name",
	"district_name",

	"crawl_time",

	"link",
}

const crawlTimeLayout = "2006-01-02 15:04:05"

// SnapshotStore persists deduplicated canonical listings as one CSV plus one
// formatted Excel rendering per snapshot, whole-table rewrite each time.
type SnapshotStore struct {
	outputDir string
	merge     bool
	logger    *utils.Logger
}

// NewSnapshotStore creates a store writing under outputDir. When merge is
// true, Persist reconciles each batch against the previously written CSV
// snapshot by link instead of only deduplicating within the batch.
func NewSnapshotStore(outputDir string, merge bool, logger *utils.Logger) *SnapshotStore {
	return &SnapshotStore{outputDir: outputDir, merge: merge, logger: logger}
}

// Persist stores one batch under the given snapshot name. Rows without a
// link are dropped, duplicate links keep the first occurrence in input order.
// An empty batch produces an empty table and no artifact paths — valid "no
// data", not an error. Returns the stored rows in stored order.
func (s *SnapshotStore) Persist(name string, listings []*models.Listing) ([]*models.Listing, models.SnapshotPaths, error) {
	stored := dedupeByLink(listings)

	if s.merge {
		merged, err := s.mergeWithPrevious(name, stored)
		if err != nil {
			return nil, models.SnapshotPaths{}, err
		}
		stored = merged
	}

	if len(stored) == 0 {
		s.logger.Warn("[store] %s: nothing to persist", name)
		return stored, models.SnapshotPaths{}, nil
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, models.SnapshotPaths{}, fmt.Errorf("store: create output dir: %w", err)
	}

	paths := models.SnapshotPaths{
		CSV:  filepath.Join(s.outputDir, name+".csv"),
		XLSX: filepath.Join(s.outputDir, name+".xlsx"),
	}

	header := snapshotHeader(stored)

	if err := writeCSV(paths.CSV, header, stored); err != nil {
		return nil, models.SnapshotPaths{}, err
	}
	if err := writeExcelSnapshot(paths.XLSX, name, header, stored); err != nil {
		return nil, models.SnapshotPaths{}, err
	}

	s.logger.Info("[store] %s: %d listings → %s", name, len(stored), paths.CSV)
	return stored, paths, nil
}

// mergeWithPrevious reconciles the incoming batch against the snapshot
// already on disk: previously stored rows win and keep their crawl time,
// only new links are appended.
func (s *SnapshotStore) mergeWithPrevious(name string, batch []*models.Listing) ([]*models.Listing, error) {
	prevPath := filepath.Join(s.outputDir, name+".csv")
	existing, err := ReadSnapshot(prevPath)
	if os.IsNotExist(err) {
		return batch, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read previous snapshot %q: %w", prevPath, err)
	}

	seen := make(map[string]struct{}, len(existing))
	merged := make([]*models.Listing, 0, len(existing)+len(batch))
	for _, l := range existing {
		seen[l.Link] = struct{}{}
		merged = append(merged, l)
	}
	added := 0
	for _, l := range batch {
		if _, dup := seen[l.Link]; dup {
			continue
		}
		seen[l.Link] = struct{}{}
		merged = append(merged, l)
		added++
	}
	s.logger.Info("[store] %s: merged %d existing + %d new listings", name, len(existing), added)
	return merged, nil
}

// dedupeByLink drops rows with an empty link, then duplicate links keeping
// the first occurrence. Input order is preserved.
func dedupeByLink(listings []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{}, len(listings))
	result := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Link == "" {
			continue
		}
		if _, dup := seen[l.Link]; dup {
			continue
		}
		seen[l.Link] = struct{}{}
		result = append(result, l)
	}
	return result
}

// snapshotHeader is the canonical column order followed by the union of
// extra columns in first-seen relative order across the batch.
func snapshotHeader(listings []*models.Listing) []string {
	header := make([]string, len(columnOrder))
	copy(header, columnOrder)

	seen := make(map[string]struct{}, len(columnOrder))
	for _, c := range columnOrder {
		seen[c] = struct{}{}
	}
	for _, l := range listings {
		for _, f := range l.Extra {
			if _, dup := seen[f.Key]; dup {
				continue
			}
			seen[f.Key] = struct{}{}
			header = append(header, f.Key)
		}
	}
	return header
}

// snapshotRow renders one listing against the header; nullable numerics
// render as empty cells, never zero.
func snapshotRow(l *models.Listing, header []string) []string {
	extras := make(map[string]string, len(l.Extra))
	for _, f := range l.Extra {
		extras[f.Key] = f.Value
	}

	row := make([]string, len(header))
	for i, col := range header {
		switch col {
		case "city":
			row[i] = l.City
		case "category":
			row[i] = l.Category
		case "category_code":
			row[i] = l.CategoryCode
		case "title":
			row[i] = l.Title
		case "price_string":
			row[i] = l.PriceString
		case "price":
			row[i] = formatNumber(l.Price)
		case "price_million_per_m2":
			row[i] = formatNumber(l.PricePerM2)
		case "area":
			row[i] = formatNumber(l.Area)
		case "ward_name":
			row[i] = l.WardName
		case "district_name":
			row[i] = l.DistrictName
		case "crawl_time":
			if !l.CrawlTime.IsZero() {
				row[i] = l.CrawlTime.UTC().Format(crawlTimeLayout)
			}
		case "link":
			row[i] = l.Link
		default:
			row[i] = extras[col]
		}
	}
	return row
}

func writeCSV(path string, header []string, listings []*models.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, l := range listings {
		if err := w.Write(snapshotRow(l, header)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadSnapshot loads a persisted snapshot CSV back into canonical listings.
// Unparsable numerics come back nil and an unparsable crawl_time comes back
// as the zero time; downstream aggregation treats both as "absent".
func ReadSnapshot(path string) ([]*models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	canonical := make(map[string]struct{}, len(columnOrder))
	for _, c := range columnOrder {
		canonical[c] = struct{}{}
	}

	listings := make([]*models.Listing, 0, len(records)-1)
	for _, rec := range records[1:] {
		l := &models.Listing{}
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			val := rec[i]
			switch col {
			case "city":
				l.City = val
			case "category":
				l.Category = val
			case "category_code":
				l.CategoryCode = val
			case "title":
				l.Title = val
			case "price_string":
				l.PriceString = val
			case "price":
				l.Price = parseNumber(val)
			case "price_million_per_m2":
				l.PricePerM2 = parseNumber(val)
			case "area":
				l.Area = parseNumber(val)
			case "ward_name":
				l.WardName = val
			case "district_name":
				l.DistrictName = val
			case "crawl_time":
				if t, err := time.ParseInLocation(crawlTimeLayout, val, time.UTC); err == nil {
					l.CrawlTime = t
				}
			case "link":
				l.Link = val
			default:
				if _, known := canonical[col]; !known {
					l.Extra = append(l.Extra, models.Field{Key: col, Value: val})
				}
			}
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func formatNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
