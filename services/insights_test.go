package services

import (
	"testing"

	"airbnb-reconciler/models"
)

func priced(id, title, location string, price float64) *models.ExternalListingDetail {
	d := detail(id, title)
	if location != "" {
		d.Location = strPtr(location)
	}
	if price > 0 {
		d.Price = &price
	}
	return d
}

func sampleDetails() []*models.ExternalListingDetail {
	return []*models.ExternalListingDetail{
		priced("1", "Villa A", "Bangkok", 200),
		priced("2", "Studio B", "Bangkok", 50),
		priced("3", "Loft C", "Tokyo", 120),
		priced("4", "Cabin D", "Bali", 300),
		priced("5", "Flat E", "Tokyo", 0),
		detail("6", ""),
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleDetails())
	if r.TotalListings != 6 {
		t.Errorf("TotalListings: got %d, want 6", r.TotalListings)
	}
	if r.WithPrice != 4 {
		t.Errorf("WithPrice: got %d, want 4", r.WithPrice)
	}
	if r.WithTitle != 5 {
		t.Errorf("WithTitle: got %d, want 5", r.WithTitle)
	}
	if r.RefOnly != 1 {
		t.Errorf("RefOnly: got %d, want 1", r.RefOnly)
	}
}

func TestInsightPricesIgnoreAbsent(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleDetails())
	wantAvg := 167.50
	if r.AveragePrice != wantAvg {
		t.Errorf("AveragePrice: got %.2f, want %.2f", r.AveragePrice, wantAvg)
	}
	if r.MinPrice != 50 {
		t.Errorf("MinPrice: got %.2f, want 50", r.MinPrice)
	}
	if r.MaxPrice != 300 {
		t.Errorf("MaxPrice: got %.2f, want 300", r.MaxPrice)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleDetails())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.TitleOr("") != "Cabin D" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.TitleOr(""), "Cabin D")
	}
}

func TestInsightLocationGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleDetails())
	if r.ListingsByLocation["Bangkok"] != 2 {
		t.Errorf("Bangkok count: got %d, want 2", r.ListingsByLocation["Bangkok"])
	}
	if r.ListingsByLocation["Tokyo"] != 2 {
		t.Errorf("Tokyo count: got %d, want 2", r.ListingsByLocation["Tokyo"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 || r.MostExpensive != nil {
		t.Errorf("expected an empty report for empty input")
	}
}
