package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"airbnb-reconciler/models"
	"airbnb-reconciler/scraper"
	"airbnb-reconciler/storage"
)

func TestStatement(t *testing.T) {
	tests := []struct {
		name  string
		instr models.ReconciliationInstruction
		want  string
	}{
		{
			name:  "link",
			instr: models.ReconciliationInstruction{InternalPropertyID: 7, ExternalID: "98765", Action: models.ActionLink},
			want:  "UPDATE properties SET airbnb_id = '98765', airbnb_synced = true WHERE id = 7;",
		},
		{
			name:  "link quotes the literal",
			instr: models.ReconciliationInstruction{InternalPropertyID: 7, ExternalID: "1'; DROP TABLE x;--", Action: models.ActionLink},
			want:  "UPDATE properties SET airbnb_id = '1''; DROP TABLE x;--', airbnb_synced = true WHERE id = 7;",
		},
		{
			name:  "unlink",
			instr: models.ReconciliationInstruction{InternalPropertyID: 3, Action: models.ActionUnlink},
			want:  "UPDATE properties SET airbnb_id = NULL, airbnb_synced = false WHERE id = 3;",
		},
	}

	for _, tt := range tests {
		if got := Statement(tt.instr); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPrintNoListings(t *testing.T) {
	var buf bytes.Buffer
	NewReportEmitter(&buf, newTestLogger()).Print(&models.ScrapeResult{SourceURL: "https://example.test/users/show/1"}, nil)

	out := buf.String()
	require.Contains(t, out, "No listings found")
	require.NotContains(t, out, "Overview")
}

func TestPrintReport(t *testing.T) {
	price := 120.0
	d1 := detail("111", "Azure North Loft")
	d1.Price = &price
	d2 := detail("222", "")
	d2.FetchError = "fetch https://www.airbnb.com/rooms/222: unexpected status 503"

	result := &models.ScrapeResult{
		SourceURL: "https://www.airbnb.com/users/show/1",
		Refs:      []models.ExternalListingRef{d1.ExternalListingRef, d2.ExternalListingRef},
		Details:   []*models.ExternalListingDetail{d1, d2},
	}
	rec := &models.Reconciliation{
		Instructions: []models.ReconciliationInstruction{{
			InternalPropertyID: 5, ExternalID: "111", MatchBasis: models.MatchTitle,
			Action: models.ActionLink, Confidence: 0.91, NeedsReview: true,
		}},
		Ambiguities: []models.AmbiguousMatch{{ExternalID: "111", ExternalTitle: "Azure North Loft", CandidatePropertyIDs: []int64{5, 6}}},
	}

	var buf bytes.Buffer
	NewReportEmitter(&buf, newTestLogger()).Print(result, rec)
	out := buf.String()

	require.Contains(t, out, "Azure North Loft")
	require.Contains(t, out, "$120.00")
	require.Contains(t, out, "reported by id only")
	require.Contains(t, out, "unexpected status 503")
	require.Contains(t, out, "UPDATE properties SET airbnb_id = '111', airbnb_synced = true WHERE id = 5;")
	require.Contains(t, out, "matches properties 5, 6")
}

type recordingWriter struct {
	got []*models.ExternalListingDetail
	err error
}

func (w *recordingWriter) Write(d []*models.ExternalListingDetail) error {
	w.got = d
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

type recordingInstructions struct{ got *models.Reconciliation }

func (w *recordingInstructions) WriteInstructions(rec *models.Reconciliation) error {
	w.got = rec
	return nil
}

func TestEmitWritesEveryArtifact(t *testing.T) {
	result := &models.ScrapeResult{
		Refs:    []models.ExternalListingRef{{ID: "1"}},
		Details: []*models.ExternalListingDetail{detail("1", "A")},
	}
	rec := &models.Reconciliation{}
	failing := &recordingWriter{err: errors.New("disk full")}
	ok := &recordingWriter{}
	instr := &recordingInstructions{}

	err := NewReportEmitter(&bytes.Buffer{}, newTestLogger()).Emit(result, rec, Artifacts{
		Details:      []storage.DetailWriter{failing, ok},
		Instructions: instr,
	})

	require.EqualError(t, err, "disk full")
	require.Len(t, ok.got, 1)
	require.Same(t, rec, instr.got)
}

func TestPrintFetchFailureGuidance(t *testing.T) {
	var buf bytes.Buffer
	err := &scraper.FetchError{URL: "https://www.airbnb.com/users/show/1", StatusCode: http.StatusForbidden}
	NewReportEmitter(&buf, newTestLogger()).PrintFetchFailure(err)

	out := buf.String()
	require.Contains(t, out, "Make sure you have an internet connection")
	require.True(t, strings.Contains(out, "blocking automated requests"))
}

func TestPrintFetchFailureCancelled(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("scrape: source: %w", &scraper.FetchError{URL: "https://www.airbnb.com/users/show/1", Err: context.Canceled})
	NewReportEmitter(&buf, newTestLogger()).PrintFetchFailure(err)

	out := buf.String()
	require.Contains(t, out, "SCRAPE CANCELLED")
	require.NotContains(t, out, "internet connection")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "Métro ...", truncate("Métro Loft Paris", 9))
}
