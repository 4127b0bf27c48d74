package services

import (
	"reflect"
	"testing"

	"nhatot-market/models"
	"nhatot-market/utils"
)

func dealListings() []*models.Listing {
	return []*models.Listing{
		{DistrictName: "A", PricePerM2: fptr(10), Link: "x1"},
		{DistrictName: "A", PricePerM2: fptr(20), Link: "x2"},
		{DistrictName: "A", PricePerM2: fptr(4), Link: "x3"},
	}
}

func TestDealScoring(t *testing.T) {
	svc := NewDealService(utils.NewLogger())

	// District A median price/m2 is 10, so scores are x1=1.0, x2=2.0,
	// x3=0.4; only x3 clears the 0.75 threshold.
	deals := svc.Detect(dealListings(), 0.75)

	if len(deals) != 1 {
		t.Fatalf("deals: got %d, want 1", len(deals))
	}
	if deals[0].Link != "x3" {
		t.Errorf("best deal: got %q, want x3", deals[0].Link)
	}
	if deals[0].Score != 0.4 {
		t.Errorf("score: got %.4f, want 0.4", deals[0].Score)
	}
}

func TestDealsSortedAscending(t *testing.T) {
	svc := NewDealService(utils.NewLogger())
	listings := []*models.Listing{
		{DistrictName: "A", PricePerM2: fptr(10), Link: "x1"},
		{DistrictName: "A", PricePerM2: fptr(20), Link: "x2"},
		{DistrictName: "A", PricePerM2: fptr(4), Link: "x3"},
		{DistrictName: "A", PricePerM2: fptr(6), Link: "x4"},
	}

	deals := svc.Detect(listings, 10)
	for i := 1; i < len(deals); i++ {
		if deals[i].Score < deals[i-1].Score {
			t.Fatalf("not sorted ascending at %d: %.3f after %.3f", i, deals[i].Score, deals[i-1].Score)
		}
	}
}

func TestDealsExcludeMissingDistrictOrPrice(t *testing.T) {
	svc := NewDealService(utils.NewLogger())
	listings := []*models.Listing{
		{DistrictName: "", PricePerM2: fptr(1), Link: "no-district"},
		{DistrictName: "A", PricePerM2: nil, Link: "no-price"},
		{DistrictName: "A", PricePerM2: fptr(5), Link: "ok1"},
		{DistrictName: "A", PricePerM2: fptr(50), Link: "ok2"},
	}

	deals := svc.Detect(listings, 100)
	for _, d := range deals {
		if d.Link == "no-district" || d.Link == "no-price" {
			t.Errorf("excluded listing scored: %q", d.Link)
		}
	}
	if len(deals) != 2 {
		t.Errorf("deals: got %d, want 2", len(deals))
	}
}

func TestSingleListingDistrictScoresOne(t *testing.T) {
	svc := NewDealService(utils.NewLogger())
	listings := []*models.Listing{
		{DistrictName: "Solo", PricePerM2: fptr(77), Link: "only"},
	}

	// Uninformative but valid: the single value is its own median.
	deals := svc.Detect(listings, 1.5)
	if len(deals) != 1 {
		t.Fatalf("deals: got %d, want 1", len(deals))
	}
	if deals[0].Score != 1.0 {
		t.Errorf("score: got %.4f, want 1.0", deals[0].Score)
	}
}

func TestDealsIdempotent(t *testing.T) {
	svc := NewDealService(utils.NewLogger())
	first := svc.Detect(dealListings(), 0.75)
	second := svc.Detect(dealListings(), 0.75)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scoring differs:\n%+v\n%+v", first, second)
	}
}

func TestDealsThresholdMonotonic(t *testing.T) {
	svc := NewDealService(utils.NewLogger())
	listings := []*models.Listing{
		{DistrictName: "A", PricePerM2: fptr(3), Link: "a1"},
		{DistrictName: "A", PricePerM2: fptr(7), Link: "a2"},
		{DistrictName: "A", PricePerM2: fptr(10), Link: "a3"},
		{DistrictName: "A", PricePerM2: fptr(14), Link: "a4"},
		{DistrictName: "B", PricePerM2: fptr(5), Link: "b1"},
		{DistrictName: "B", PricePerM2: fptr(9), Link: "b2"},
	}

	prev := -1
	for _, threshold := range []float64{0.2, 0.5, 0.75, 1.0, 2.0} {
		n := len(svc.Detect(listings, threshold))
		if prev >= 0 && n < prev {
			t.Fatalf("threshold %.2f returned %d deals, fewer than a lower threshold's %d", threshold, n, prev)
		}
		prev = n
	}
}
