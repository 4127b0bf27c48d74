package services

import (
	"sort"

	"nhatot-market/models"
	"nhatot-market/utils"
)

// MarketService computes grouped descriptive statistics over one canonical
// listing set. All views exclude listings with an empty district name, and
// every statistic excludes nil values rather than counting them as zero.
type MarketService struct {
	logger *utils.Logger
}

func NewMarketService(logger *utils.Logger) *MarketService {
	return &MarketService{logger: logger}
}

// PriceByDistrict groups listings by district and emits count plus
// mean/median price and price per m2. The count includes listings without a
// price; the price statistics do not.
func (s *MarketService) PriceByDistrict(listings []*models.Listing) []models.DistrictStats {
	type bucket struct {
		count    int
		prices   []float64
		pricesM2 []float64
	}

	buckets := make(map[string]*bucket)
	for _, l := range listings {
		if l.DistrictName == "" {
			continue
		}
		b := buckets[l.DistrictName]
		if b == nil {
			b = &bucket{}
			buckets[l.DistrictName] = b
		}
		b.count++
		if l.Price != nil {
			b.prices = append(b.prices, *l.Price)
		}
		if l.PricePerM2 != nil {
			b.pricesM2 = append(b.pricesM2, *l.PricePerM2)
		}
	}

	result := make([]models.DistrictStats, 0, len(buckets))
	for district, b := range buckets {
		result = append(result, models.DistrictStats{
			District:      district,
			Listings:      b.count,
			AvgPrice:      meanOf(b.prices),
			MedianPrice:   medianOf(b.prices),
			AvgPriceM2:    meanOf(b.pricesM2),
			MedianPriceM2: medianOf(b.pricesM2),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].District < result[j].District
	})
	return result
}

// PriceM2ByDistrictCategory groups by district and category. Listings without
// a price per m2 are excluded entirely, count included: the category-level
// supply count is driven by valid pricing signal.
func (s *MarketService) PriceM2ByDistrictCategory(listings []*models.Listing) []models.CategoryStats {
	type key struct {
		district string
		category string
	}

	buckets := make(map[key][]float64)
	for _, l := range listings {
		if l.DistrictName == "" || l.PricePerM2 == nil {
			continue
		}
		k := key{l.DistrictName, l.Category}
		buckets[k] = append(buckets[k], *l.PricePerM2)
	}

	result := make([]models.CategoryStats, 0, len(buckets))
	for k, values := range buckets {
		avg := meanOf(values)
		med := medianOf(values)
		result = append(result, models.CategoryStats{
			District:      k.district,
			Category:      k.category,
			Listings:      len(values),
			AvgPriceM2:    *avg,
			MedianPriceM2: *med,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].District != result[j].District {
			return result[i].District < result[j].District
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// SupplyByDistrict cross-tabulates district x category listing counts,
// zero-filled for absent combinations, with a per-district total.
func (s *MarketService) SupplyByDistrict(listings []*models.Listing) models.SupplyTable {
	counts := make(map[string]map[string]int)
	categorySet := make(map[string]struct{})

	for _, l := range listings {
		if l.DistrictName == "" {
			continue
		}
		row := counts[l.DistrictName]
		if row == nil {
			row = make(map[string]int)
			counts[l.DistrictName] = row
		}
		row[l.Category]++
		categorySet[l.Category] = struct{}{}
	}

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	districts := make([]string, 0, len(counts))
	for d := range counts {
		districts = append(districts, d)
	}
	sort.Strings(districts)

	table := models.SupplyTable{Categories: categories}
	for _, d := range districts {
		row := models.SupplyRow{District: d, Counts: make([]int, len(categories))}
		for i, c := range categories {
			row.Counts[i] = counts[d][c]
			row.Total += counts[d][c]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// meanOf returns the mean rounded to 2 decimals, or nil for no values.
func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	m := round2(total / float64(len(values)))
	return &m
}

// medianOf returns the exact median (midpoint of the two middle values for
// even counts), or nil for no values. The input slice is not modified.
func medianOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 1 {
		m = sorted[mid]
	} else {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
