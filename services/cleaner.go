package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"airbnb-reconciler/models"
	"airbnb-reconciler/utils"
)

var (
	// priceRegexp captures numeric price values
	priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// countRegexp captures a whole-number count
	countRegexp = regexp.MustCompile(`\d+`)
)

// Cleaner transforms RawDetails into typed ExternalListingDetails.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// CleanDetail converts every recovered raw field; a field that is missing or
// does not parse stays absent without affecting the others.
func (c *Cleaner) CleanDetail(raw *models.RawDetail) *models.ExternalListingDetail {
	d := models.RefOnly(raw.Ref)
	d.FetchError = raw.FetchErr

	d.Title = optText(raw.Title)
	d.Location = optText(raw.Location)

	if p, ok := c.parsePrice(raw.RawPrice); ok {
		d.Price = &p
	} else if raw.RawPrice != "" {
		c.logger.Debug("[cleaner] Unparseable price %q for %s", raw.RawPrice, raw.Ref.ID)
	}

	d.Guests = c.optCount(raw.Guests)
	d.Bedrooms = c.optCount(raw.Bedrooms)
	d.Bathrooms = c.optCount(raw.Bathrooms)

	return d
}

// parsePrice returns the first numeric token of raw, commas ignored.
// Examples:
//
//	"$150 night"        → 150
//	"$1,200.50 / night" → 1200.50
//	"free"              → absent
func (c *Cleaner) parsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// parseCount returns the first whole number of raw.
func (c *Cleaner) parseCount(raw string) (int, bool) {
	match := countRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cleaner) optCount(raw string) *int {
	n, ok := c.parseCount(raw)
	if !ok {
		return nil
	}
	return &n
}

func optText(raw string) *string {
	s := normaliseText(raw)
	if s == "" {
		return nil
	}
	return &s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
