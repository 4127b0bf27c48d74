package nhatot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nhatot-market/config"
	"nhatot-market/models"
	"nhatot-market/utils"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/121.0.0.0 Safari/537.36"

// Scraper fetches raw ad records from the public ad-listing gateway, one
// partition at a time. Retry, timeout and rate limiting live here; what the
// records mean is the normalizer's business.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	client  *http.Client
	limiter *utils.RateLimiter
}

// New creates a Scraper with a bounded request timeout taken from config.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeoutMs) * time.Millisecond,
		},
		limiter: utils.NewRateLimiter(cfg.RateLimitMs),
	}
}

type adListingResponse struct {
	Ads []models.RawAd `json:"ads"`
}

// FetchCity pulls every configured page for one city partition sequentially.
// Ads repeated across pages are dropped by list_id. A failed page fails the
// whole partition; the caller decides whether other partitions continue.
func (s *Scraper) FetchCity(city config.City) ([]models.RawAd, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: s.cfg.MaxRetries,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
		Logger:      s.logger,
	}

	seen := utils.NewLinkSet()
	var ads []models.RawAd

	for page := 1; page <= city.Pages; page++ {
		var pageAds []models.RawAd
		op := fmt.Sprintf("fetch %s page %d", city.Name, page)

		err := retry.Do(op, func() error {
			s.limiter.Wait()
			var err error
			pageAds, err = s.fetchPage(city, page)
			return err
		})
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, ad := range pageAds {
			id, _ := ad["list_id"].(float64)
			key := strconv.FormatFloat(id, 'f', -1, 64)
			if id != 0 && !seen.Add(key) {
				continue
			}
			ads = append(ads, ad)
			fresh++
		}
		s.logger.Debug("[scraper] %s page %d: %d ads (%d new)",
			city.Name, page, len(pageAds), fresh)
	}

	s.logger.Info("[scraper] %s: fetched %d ads across %d pages",
		city.Name, len(ads), city.Pages)
	return ads, nil
}

func (s *Scraper) fetchPage(city config.City, page int) ([]models.RawAd, error) {
	params := url.Values{}
	params.Set("region_v2", city.RegionCode)
	params.Set("cg", city.CategoryCode)
	params.Set("limit", strconv.Itoa(city.Limit))
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequest(http.MethodGet, s.cfg.APIBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper: unexpected status %d", resp.StatusCode)
	}

	var payload adListingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("scraper: decode payload: %w", err)
	}
	return payload.Ads, nil
}
