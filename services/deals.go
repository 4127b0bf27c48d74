package services

import (
	"math"
	"sort"

	"nhatot-market/models"
	"nhatot-market/utils"
)

// DefaultDealThreshold keeps a listing when its price per m2 is at least 25%
// below the district's typical price per m2.
const DefaultDealThreshold = 0.75

// DealService flags underpriced listings relative to their local market.
type DealService struct {
	logger *utils.Logger
}

func NewDealService(logger *utils.Logger) *DealService {
	return &DealService{logger: logger}
}

// Detect scores every listing against its district's median price per m2 and
// returns those scoring below threshold, best deals first. Listings without a
// district or a price per m2 are excluded. The result is deterministic for a
// fixed input: ties keep the input order.
//
// A district with a single listing trivially scores 1.0 — uninformative, not
// an error, and not suppressed here.
func (s *DealService) Detect(listings []*models.Listing, threshold float64) []models.Deal {
	candidates := make([]*models.Listing, 0, len(listings))
	byDistrict := make(map[string][]float64)

	for _, l := range listings {
		if l.DistrictName == "" || l.PricePerM2 == nil {
			continue
		}
		candidates = append(candidates, l)
		byDistrict[l.DistrictName] = append(byDistrict[l.DistrictName], *l.PricePerM2)
	}

	medians := make(map[string]float64, len(byDistrict))
	for district, values := range byDistrict {
		medians[district] = *medianOf(values)
	}

	deals := make([]models.Deal, 0)
	for _, l := range candidates {
		score := *l.PricePerM2 / medians[l.DistrictName]
		// The district median is derived from the same filtered rows, so a
		// non-finite score should not occur; excluded defensively anyway.
		if math.IsNaN(score) || math.IsInf(score, 0) {
			s.logger.Debug("[deals] Non-finite score skipped: %s", l.Link)
			continue
		}
		if score >= threshold {
			continue
		}
		deals = append(deals, models.Deal{
			Title:      l.Title,
			District:   l.DistrictName,
			Price:      l.Price,
			PricePerM2: *l.PricePerM2,
			Area:       l.Area,
			Score:      score,
			Link:       l.Link,
		})
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].Score < deals[j].Score
	})
	return deals
}
