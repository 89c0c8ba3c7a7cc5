package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lib/pq"

	"airbnb-reconciler/models"
	"airbnb-reconciler/scraper"
	"airbnb-reconciler/storage"
	"airbnb-reconciler/utils"
)

// Artifacts are the files a scrape run writes besides the console report.
type Artifacts struct {
	Details      []storage.DetailWriter
	Instructions storage.InstructionWriter
}

// ReportEmitter renders a batch for the operator and writes its artifacts.
type ReportEmitter struct {
	out      io.Writer
	logger   *utils.Logger
	insights *InsightService
}

// NewReportEmitter writes to out, or stdout when out is nil.
func NewReportEmitter(out io.Writer, logger *utils.Logger) *ReportEmitter {
	if out == nil {
		out = os.Stdout
	}
	return &ReportEmitter{out: out, logger: logger, insights: NewInsightService(logger)}
}

// Statement renders an instruction as the SQL an operator would run to apply
// it. It is for review only and is never executed.
func Statement(instr models.ReconciliationInstruction) string {
	if instr.Action == models.ActionUnlink {
		return fmt.Sprintf("UPDATE properties SET airbnb_id = NULL, airbnb_synced = false WHERE id = %d;",
			instr.InternalPropertyID)
	}
	return fmt.Sprintf("UPDATE properties SET airbnb_id = %s, airbnb_synced = true WHERE id = %d;",
		pq.QuoteLiteral(instr.ExternalID), instr.InternalPropertyID)
}

// Emit prints the report then writes every artifact. Every writer is tried;
// the first failure is returned.
func (r *ReportEmitter) Emit(result *models.ScrapeResult, rec *models.Reconciliation, a Artifacts) error {
	r.Print(result, rec)

	var firstErr error
	for _, w := range a.Details {
		if err := w.Write(result.Details); err != nil {
			r.logger.Error("[report] Artifact write failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if a.Instructions != nil && rec != nil {
		if err := a.Instructions.WriteInstructions(rec); err != nil {
			r.logger.Error("[report] Instruction write failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *ReportEmitter) header(title string) {
	sep := strings.Repeat("═", 54)
	fmt.Fprintf(r.out, "\n%s\n  %s\n%s\n\n", sep, title, sep)
}

func (r *ReportEmitter) section(title string) {
	fmt.Fprintf(r.out, "  %s\n  %s\n", title, strings.Repeat("─", 54))
}

func (r *ReportEmitter) table() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(r.out)
	return t
}

// Print renders the full console report for one batch.
func (r *ReportEmitter) Print(result *models.ScrapeResult, rec *models.Reconciliation) {
	r.header("AIRBNB LISTING RECONCILIATION")
	fmt.Fprintf(r.out, "  Source : %s\n\n", result.SourceURL)

	if result.NoListings() {
		fmt.Fprintf(r.out, "  No listings found on the source page.\n")
		fmt.Fprintf(r.out, "  The profile may have no active listings, or the page was served without them.\n\n")
		return
	}

	if result.Interrupted {
		fmt.Fprintf(r.out, "  Interrupted: %d of %d listing(s) resolved before cancellation.\n\n",
			len(result.Details), len(result.Refs))
	}

	r.printListings(result.Details)
	r.PrintInsights(r.insights.Generate(result.Details))
	if rec != nil {
		r.printInstructions(rec.Instructions)
		r.printAmbiguities(rec.Ambiguities)
	}
}

func (r *ReportEmitter) printListings(details []*models.ExternalListingDetail) {
	r.section("Listings")
	t := r.table()
	t.AppendHeader(table.Row{"#", "ID", "Title", "Price", "Location", "Guests", "Beds", "Baths", "URL"})
	for i, d := range details {
		row := storage.DetailRow(d)
		t.AppendRow(table.Row{
			i + 1, d.ID, truncate(row[1], 40), formatPrice(d.Price), truncate(row[3], 28),
			row[4], row[5], row[6], d.URL,
		})
	}
	t.Render()

	var failed []*models.ExternalListingDetail
	for _, d := range details {
		if d.FetchError != "" {
			failed = append(failed, d)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(r.out, "\n  %d listing(s) could not be resolved and are reported by id only:\n", len(failed))
		for _, d := range failed {
			fmt.Fprintf(r.out, "    %s  %s\n", d.ID, d.FetchError)
		}
	}
	fmt.Fprintln(r.out)
}

// PrintInsights renders the summary statistics.
func (r *ReportEmitter) PrintInsights(rep *models.InsightReport) {
	r.section("Overview")
	fmt.Fprintf(r.out, "  Total listings : %d\n", rep.TotalListings)
	fmt.Fprintf(r.out, "  With title     : %d\n", rep.WithTitle)
	fmt.Fprintf(r.out, "  With price     : %d\n", rep.WithPrice)
	fmt.Fprintf(r.out, "  With location  : %d\n", rep.WithLocation)
	fmt.Fprintf(r.out, "  Id only        : %d\n\n", rep.RefOnly)

	r.section("Price Statistics (per night, low confidence)")
	if rep.WithPrice > 0 {
		fmt.Fprintf(r.out, "  Average price : $%.2f\n", rep.AveragePrice)
		fmt.Fprintf(r.out, "  Minimum price : $%.2f\n", rep.MinPrice)
		fmt.Fprintf(r.out, "  Maximum price : $%.2f\n", rep.MaxPrice)
		if rep.MostExpensive != nil {
			fmt.Fprintf(r.out, "  Most expensive: %s (%s)\n",
				truncate(rep.MostExpensive.TitleOr(rep.MostExpensive.ID), 40), rep.MostExpensive.ID)
		}
	} else {
		fmt.Fprintf(r.out, "  No price data available\n")
	}
	fmt.Fprintln(r.out)

	if len(rep.ListingsByLocation) == 0 {
		return
	}
	r.section("Listings by Location")
	type locCount struct {
		loc   string
		count int
	}
	locs := make([]locCount, 0, len(rep.ListingsByLocation))
	for loc, cnt := range rep.ListingsByLocation {
		locs = append(locs, locCount{loc, cnt})
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].count != locs[j].count {
			return locs[i].count > locs[j].count
		}
		return locs[i].loc < locs[j].loc
	})
	for _, lc := range locs {
		fmt.Fprintf(r.out, "  %-30s %s (%d)\n", truncate(lc.loc, 28), strings.Repeat("█", lc.count), lc.count)
	}
	fmt.Fprintln(r.out)
}

func (r *ReportEmitter) printInstructions(instrs []models.ReconciliationInstruction) {
	r.section("Proposed Links (not applied)")
	if len(instrs) == 0 {
		fmt.Fprintf(r.out, "  No catalog property matched a scraped listing\n\n")
		return
	}

	t := r.table()
	t.AppendHeader(table.Row{"Property", "Listing", "Basis", "Confidence", "Review", "Note"})
	for _, in := range instrs {
		review := ""
		if in.NeedsReview {
			review = "yes"
		}
		t.AppendRow(table.Row{
			in.InternalPropertyID, in.ExternalID, in.MatchBasis,
			strconv.FormatFloat(in.Confidence, 'f', 2, 64), review, in.Note,
		})
	}
	t.Render()

	fmt.Fprintf(r.out, "\n  Review, then apply with `link` or run by hand:\n")
	for _, in := range instrs {
		fmt.Fprintf(r.out, "    %s\n", Statement(in))
	}
	fmt.Fprintln(r.out)
}

func (r *ReportEmitter) printAmbiguities(ambs []models.AmbiguousMatch) {
	if len(ambs) == 0 {
		return
	}
	r.section("Ambiguous Matches (operator review required)")
	for _, a := range ambs {
		if a.ExternalID != "" {
			fmt.Fprintf(r.out, "  Listing %s %q matches properties %s\n",
				a.ExternalID, a.ExternalTitle, joinIDs(a.CandidatePropertyIDs))
			continue
		}
		fmt.Fprintf(r.out, "  Property %d matches listings %s\n",
			a.PropertyID, strings.Join(a.CandidateExternalIDs, ", "))
	}
	fmt.Fprintln(r.out)
}

// PrintFetchFailure explains why the source page could not be read.
func (r *ReportEmitter) PrintFetchFailure(err error) {
	if errors.Is(err, context.Canceled) {
		r.header("SCRAPE CANCELLED")
		fmt.Fprintf(r.out, "  Cancelled before the source page was read. Nothing was written.\n\n")
		return
	}

	r.header("SOURCE PAGE UNAVAILABLE")
	fmt.Fprintf(r.out, "  %v\n\n", err)

	var fe *scraper.FetchError
	if !errors.As(err, &fe) {
		return
	}
	for _, tip := range fe.Guidance() {
		fmt.Fprintf(r.out, "  - %s\n", tip)
	}
	fmt.Fprintln(r.out)
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("$%.2f", *p)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
