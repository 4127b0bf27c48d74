package services

import (
	"sort"
	"time"

	"nhatot-market/models"
	"nhatot-market/utils"
)

// TrendService buckets listings by crawl day over a trailing window.
type TrendService struct {
	logger *utils.Logger
}

func NewTrendService(logger *utils.Logger) *TrendService {
	return &TrendService{logger: logger}
}

// Last7Days counts listings per UTC calendar day over the 7 days ending at
// the newest crawl date present, both ends inclusive. Listings with a zero
// crawl time are excluded. Days with no listings are not synthesized: the
// output is sparse, sorted ascending by date. Empty input yields an empty
// result, never an error.
func (s *TrendService) Last7Days(listings []*models.Listing) []models.DailyCount {
	counts := make(map[time.Time]int)
	var maxDate time.Time

	for _, l := range listings {
		if l.CrawlTime.IsZero() {
			continue
		}
		day := l.CrawlTime.UTC().Truncate(24 * time.Hour)
		counts[day]++
		if day.After(maxDate) {
			maxDate = day
		}
	}
	if len(counts) == 0 {
		return nil
	}

	windowStart := maxDate.AddDate(0, 0, -6)

	result := make([]models.DailyCount, 0, len(counts))
	for day, n := range counts {
		if day.Before(windowStart) {
			continue
		}
		result = append(result, models.DailyCount{Date: day, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}
