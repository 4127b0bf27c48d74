package models

import "time"

// RawAd is one unprocessed record from the provider's ad-listing API,
// exactly as decoded from the JSON payload.
type RawAd = map[string]any

// Field is one unrecognized provider field carried through to storage.
// Extras keep their encounter order so persisted column order stays stable.
type Field struct {
	Key   string
	Value string
}

// Listing is the canonical, schema-fixed representation of one real-estate ad.
//
// Price, PricePerM2 and Area are pointers: nil means the provider value was
// absent or unparsable, and every aggregation excludes nil from the statistic
// rather than treating it as zero.
//
// WardName and DistrictName come from unrelated provider fields and may
// disagree with each other; they are deliberately never joined or validated
// against one another.
type Listing struct {
	City         string
	Category     string
	CategoryCode string

	Title string

	PriceString string
	Price       *float64
	PricePerM2  *float64
	Area        *float64

	WardName     string
	DistrictName string

	CrawlTime time.Time

	// Link is the synthesized listing URL and the dedupe key; a listing
	// without one is invalid and never stored.
	Link string

	Extra []Field
}

// SnapshotPaths holds the artifact locations produced by one persist call.
// Both are empty when the batch had no storable rows.
type SnapshotPaths struct {
	CSV  string
	XLSX string
}

// DistrictStats is one row of the by-district market view. Listings counts
// every row in the district; each price statistic is nil when no listing in
// the district carried the corresponding value.
type DistrictStats struct {
	District      string
	Listings      int
	AvgPrice      *float64
	MedianPrice   *float64
	AvgPriceM2    *float64
	MedianPriceM2 *float64
}

// CategoryStats is one row of the district x category view. Only listings
// with a price-per-m2 value participate, so Listings never disagrees with
// the statistics' sample size.
type CategoryStats struct {
	District      string
	Category      string
	Listings      int
	AvgPriceM2    float64
	MedianPriceM2 float64
}

// SupplyRow is one district row of the supply cross-tab; Counts is parallel
// to SupplyTable.Categories and zero-filled.
type SupplyRow struct {
	District string
	Counts   []int
	Total    int
}

// SupplyTable is the district x category listing-count cross-tabulation.
type SupplyTable struct {
	Categories []string
	Rows       []SupplyRow
}

// Deal is one underpriced listing: Score is the ratio of its price per m2 to
// its district's median price per m2, so lower means cheaper than typical.
type Deal struct {
	Title      string
	District   string
	Price      *float64
	PricePerM2 float64
	Area       *float64
	Score      float64
	Link       string
}

// DailyCount is one day of the listing trend; Date is a UTC calendar day.
type DailyCount struct {
	Date  time.Time
	Count int
}
