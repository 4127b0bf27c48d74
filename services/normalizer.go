package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"nhatot-market/config"
	"nhatot-market/models"
	"nhatot-market/utils"
)

// canonicalKeys are the provider fields consumed into named Listing fields;
// everything else a record carries ends up in Extra.
var canonicalKeys = map[string]struct{}{
	"type":                 {},
	"list_id":              {},
	"subject":              {},
	"price":                {},
	"price_string":         {},
	"price_million_per_m2": {},
	"area":                 {},
	"land_area":            {},
	"ward_name":            {},
	"ward_name_v3":         {},
	"area_name":            {},
}

const listingURLPrefix = "https://www.nhatot.com/"

// Normalizer maps raw provider records to canonical Listings.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts one fetched batch for a partition into canonical
// listings. Records that are not "for sale" or have no stable identifier are
// dropped; a bad record never fails the batch. The crawl timestamp is stamped
// here, once per batch, in UTC at second precision.
func (n *Normalizer) Normalize(ads []models.RawAd, city config.City) []*models.Listing {
	crawlTime := time.Now().UTC().Truncate(time.Second)
	result := make([]*models.Listing, 0, len(ads))

	for _, ad := range ads {
		l, ok := n.normalizeOne(ad, city, crawlTime)
		if !ok {
			continue
		}
		result = append(result, l)
	}

	n.logger.Info("[normalizer] %s: %d raw → %d listings (dropped %d)",
		city.Name, len(ads), len(result), len(ads)-len(result))
	return result
}

func (n *Normalizer) normalizeOne(ad models.RawAd, city config.City, crawlTime time.Time) (*models.Listing, bool) {
	// Only "for sale" ads are modeled.
	if asString(ad["type"]) != "s" {
		return nil, false
	}

	id := renderScalar(ad["list_id"])
	if id == "" {
		n.logger.Debug("[normalizer] Dropping ad without list_id: %q", asString(ad["subject"]))
		return nil, false
	}

	// Area: primary field first, land_area as fallback, never averaged.
	area := asFloat(ad["area"])
	if area == nil {
		area = asFloat(ad["land_area"])
	}

	ward := asString(ad["ward_name_v3"])
	if ward == "" {
		ward = asString(ad["ward_name"])
	}

	return &models.Listing{
		City:         city.Name,
		Category:     city.Category,
		CategoryCode: city.CategoryCode,
		Title:        asString(ad["subject"]),
		PriceString:  asString(ad["price_string"]),
		Price:        asFloat(ad["price"]),
		PricePerM2:   asFloat(ad["price_million_per_m2"]),
		Area:         area,
		WardName:     ward,
		DistrictName: asString(ad["area_name"]),
		CrawlTime:    crawlTime,
		Link:         listingURLPrefix + id,
		Extra:        extraFields(ad),
	}, true
}

// extraFields collects unrecognized scalar provider fields. The JSON decode
// loses the provider's field order, so extras are keyed alphabetically to
// keep persisted column order deterministic across runs.
func extraFields(ad models.RawAd) []models.Field {
	keys := make([]string, 0, len(ad))
	for k, v := range ad {
		if _, canonical := canonicalKeys[k]; canonical {
			continue
		}
		if !isScalar(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]models.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, models.Field{Key: k, Value: renderScalar(ad[k])})
	}
	return fields
}

// asString returns v when it is a string, "" otherwise — never a stringified
// number, so ward/district grouping keys stay stable.
func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// asFloat coerces a provider value to a number, accepting JSON numbers and
// numeric strings; nil means absent or unparsable.
func asFloat(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, float64, int, int64, bool:
		return true
	default:
		return false
	}
}

// renderScalar formats a scalar provider value for use in URLs and stored
// extra columns; integral floats render without an exponent or decimals.
func renderScalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
