package services

import (
	"airbnb-reconciler/models"
	"airbnb-reconciler/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises a batch. Statistics only count listings where the
// field is present; an absent price is not a price of zero.
func (s *InsightService) Generate(details []*models.ExternalListingDetail) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByLocation: make(map[string]int),
	}

	if len(details) == 0 {
		return report
	}

	report.TotalListings = len(details)

	var total float64
	for _, d := range details {
		if d.IsRefOnly() {
			report.RefOnly++
		}
		if d.Title != nil {
			report.WithTitle++
		}
		if d.Location != nil {
			report.WithLocation++
			report.ListingsByLocation[*d.Location]++
		}
		if d.Price == nil {
			continue
		}

		p := *d.Price
		if report.WithPrice == 0 || p < report.MinPrice {
			report.MinPrice = p
		}
		if report.WithPrice == 0 || p > report.MaxPrice {
			report.MaxPrice = p
			report.MostExpensive = d
		}
		report.WithPrice++
		total += p
	}

	if report.WithPrice > 0 {
		report.AveragePrice = round2(total / float64(report.WithPrice))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	s.logger.Debug("[insights] %d listings, %d priced, %d ref-only",
		report.TotalListings, report.WithPrice, report.RefOnly)
	return report
}
