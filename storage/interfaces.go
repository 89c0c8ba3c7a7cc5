package storage

import (
	"context"
	"errors"
	"strconv"

	"airbnb-reconciler/models"
)

// ErrPropertyNotFound is returned when a catalog row does not exist.
var ErrPropertyNotFound = errors.New("storage: property not found")

// DetailWriter is the interface any listing artifact must satisfy.
type DetailWriter interface {
	Write(details []*models.ExternalListingDetail) error
	Close() error
}

// InstructionWriter persists the proposed reconciliation for review.
type InstructionWriter interface {
	WriteInstructions(rec *models.Reconciliation) error
}

// Catalog is the site's own property table.
type Catalog interface {
	ListProperties(ctx context.Context) ([]*models.InternalProperty, error)
	GetProperty(ctx context.Context, id int64) (*models.InternalProperty, error)
	// ApplyInstruction writes one confirmed instruction and returns the
	// updated row.
	ApplyInstruction(ctx context.Context, instr models.ReconciliationInstruction) (*models.InternalProperty, error)
}

// CandidateStore keeps the last scraped batch so the admin UI can offer it.
type CandidateStore interface {
	SaveCandidates(ctx context.Context, details []*models.ExternalListingDetail) error
	ListCandidates(ctx context.Context) ([]*models.ExternalListingDetail, error)
}

// DetailColumns is the header shared by the tabular artifacts.
var DetailColumns = []string{
	"airbnb_id", "title", "price", "location", "guests", "bedrooms", "bathrooms", "url",
}

// DetailRow renders d in DetailColumns order. Absent fields are empty cells.
func DetailRow(d *models.ExternalListingDetail) []string {
	return []string{
		d.ID,
		optString(d.Title),
		optFloat(d.Price),
		optString(d.Location),
		optInt(d.Guests),
		optInt(d.Bedrooms),
		optInt(d.Bathrooms),
		d.URL,
	}
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func optInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
