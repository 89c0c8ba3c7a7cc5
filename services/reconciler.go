package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"airbnb-reconciler/models"
	"airbnb-reconciler/utils"
)

var (
	ErrNotLinked       = errors.New("reconcile: property is not linked to an external listing")
	ErrEmptyExternalID = errors.New("reconcile: external listing id is required")
)

const (
	// DefaultTitlePrefixLen is how much of a scraped title is compared.
	DefaultTitlePrefixLen = 20

	// indexConfidence is reported for position-based pairs: the order of
	// scraped listings carries no meaning, so these are guesses.
	indexConfidence = 0.1

	// minStemLen keeps short title stems ("Loft", "Villa") from matching
	// half the catalog.
	minStemLen = 6
)

// titleSeparators split a listing title into its name and a descriptor,
// as in "Azure North — Comfy Studio".
var titleSeparators = []string{" — ", " – ", " - ", " | ", " · ", ": ", ","}

// Reconciler proposes links between external listings and catalog
// properties. It never writes to the catalog.
type Reconciler struct {
	logger    *utils.Logger
	prefixLen int
}

// NewReconciler creates a Reconciler comparing the first prefixLen runes of
// scraped titles; a non-positive prefixLen uses DefaultTitlePrefixLen.
func NewReconciler(logger *utils.Logger, prefixLen int) *Reconciler {
	if prefixLen <= 0 {
		prefixLen = DefaultTitlePrefixLen
	}
	return &Reconciler{logger: logger, prefixLen: prefixLen}
}

// ReconcileOptions selects the match basis.
type ReconcileOptions struct {
	// ByIndex pairs scraped listing N with catalog row N instead of
	// matching titles.
	ByIndex bool
}

// Reconcile builds the instructions for one batch.
func (r *Reconciler) Reconcile(details []*models.ExternalListingDetail, catalog []*models.InternalProperty, opts ReconcileOptions) *models.Reconciliation {
	if opts.ByIndex {
		return &models.Reconciliation{Instructions: r.MatchByIndex(details, catalog)}
	}
	return r.MatchByTitle(details, catalog)
}

// MatchByIndex links details[i] to catalog[i] for every i both lists have.
// Each instruction is flagged for review.
func (r *Reconciler) MatchByIndex(details []*models.ExternalListingDetail, catalog []*models.InternalProperty) []models.ReconciliationInstruction {
	n := len(details)
	if len(catalog) < n {
		n = len(catalog)
	}
	if len(details) != len(catalog) {
		r.logger.Warn("[reconcile] %d scraped listings vs %d catalog rows, pairing the first %d by position",
			len(details), len(catalog), n)
	}

	out := make([]models.ReconciliationInstruction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ReconciliationInstruction{
			InternalPropertyID: catalog[i].ID,
			ExternalID:         details[i].ID,
			MatchBasis:         models.MatchExplicitIndex,
			Action:             models.ActionLink,
			Confidence:         indexConfidence,
			NeedsReview:        true,
			Note: fmt.Sprintf("position %d paired with catalog row %d by order only, verify before applying",
				i+1, i+1),
		})
	}
	return out
}

type titleCandidate struct {
	property *models.InternalProperty
	score    float64
}

// MatchByTitle proposes a link for every catalog property whose title
// matches a scraped title. All candidates are kept; when one listing has
// several candidate properties, or one property several listings, an
// AmbiguousMatch is reported and the instructions are flagged for review.
func (r *Reconciler) MatchByTitle(details []*models.ExternalListingDetail, catalog []*models.InternalProperty) *models.Reconciliation {
	rec := &models.Reconciliation{Instructions: []models.ReconciliationInstruction{}}
	byProperty := make(map[int64][]int)

	for _, d := range details {
		if d.Title == nil {
			continue
		}
		external := normTitle(*d.Title)

		var candidates []titleCandidate
		for _, p := range catalog {
			if p.ExternalID() == d.ID {
				continue
			}
			internal := normTitle(p.Title)
			if !r.titleMatches(internal, external) {
				continue
			}
			candidates = append(candidates, titleCandidate{
				property: p,
				score:    matchr.JaroWinkler(internal, external, false),
			})
		}
		if len(candidates) == 0 {
			continue
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].score != candidates[j].score {
				return candidates[i].score > candidates[j].score
			}
			return candidates[i].property.ID < candidates[j].property.ID
		})

		ambiguous := len(candidates) > 1
		if ambiguous {
			amb := models.AmbiguousMatch{ExternalID: d.ID, ExternalTitle: *d.Title}
			for _, c := range candidates {
				amb.CandidatePropertyIDs = append(amb.CandidatePropertyIDs, c.property.ID)
			}
			rec.Ambiguities = append(rec.Ambiguities, amb)
		}

		for _, c := range candidates {
			instr := models.ReconciliationInstruction{
				InternalPropertyID: c.property.ID,
				ExternalID:         d.ID,
				MatchBasis:         models.MatchTitle,
				Action:             models.ActionLink,
				Confidence:         round2(c.score),
				NeedsReview:        ambiguous,
			}
			if current := c.property.ExternalID(); current != "" {
				instr.NeedsReview = true
				instr.Note = fmt.Sprintf("replaces current link to %s", current)
			}
			byProperty[c.property.ID] = append(byProperty[c.property.ID], len(rec.Instructions))
			rec.Instructions = append(rec.Instructions, instr)
		}
	}

	propertyIDs := make([]int64, 0, len(byProperty))
	for id := range byProperty {
		propertyIDs = append(propertyIDs, id)
	}
	sort.Slice(propertyIDs, func(i, j int) bool { return propertyIDs[i] < propertyIDs[j] })

	for _, id := range propertyIDs {
		idx := byProperty[id]
		if len(idx) < 2 {
			continue
		}
		amb := models.AmbiguousMatch{PropertyID: id}
		for _, i := range idx {
			rec.Instructions[i].NeedsReview = true
			amb.CandidateExternalIDs = append(amb.CandidateExternalIDs, rec.Instructions[i].ExternalID)
		}
		rec.Ambiguities = append(rec.Ambiguities, amb)
	}

	if len(rec.Ambiguities) > 0 {
		r.logger.Warn("[reconcile] %d ambiguous title match(es) need operator review", len(rec.Ambiguities))
	}
	return rec
}

// Link builds an operator-requested link instruction.
func (r *Reconciler) Link(p *models.InternalProperty, externalID string) (models.ReconciliationInstruction, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return models.ReconciliationInstruction{}, ErrEmptyExternalID
	}

	instr := models.ReconciliationInstruction{
		InternalPropertyID: p.ID,
		ExternalID:         externalID,
		MatchBasis:         models.MatchManual,
		Action:             models.ActionLink,
		Confidence:         1,
	}
	switch current := p.ExternalID(); {
	case current == externalID:
		instr.Note = "already linked to this listing"
	case current != "":
		instr.Note = fmt.Sprintf("replaces current link to %s", current)
	}
	return instr, nil
}

// Unlink builds an instruction clearing the property's external reference
// and synced flag.
func (r *Reconciler) Unlink(p *models.InternalProperty) (models.ReconciliationInstruction, error) {
	if p.ExternalRef == nil {
		return models.ReconciliationInstruction{}, fmt.Errorf("property %d: %w", p.ID, ErrNotLinked)
	}
	return models.ReconciliationInstruction{
		InternalPropertyID: p.ID,
		MatchBasis:         models.MatchManual,
		Action:             models.ActionUnlink,
		Confidence:         1,
		Note:               fmt.Sprintf("was linked to %s", p.ExternalRef.ID),
	}, nil
}

// titleMatches reports whether a catalog title matches a scraped title.
// Both arguments are already normalised. Any of these is a match:
//   - the catalog title contains the scraped title's first prefixLen runes
//   - the catalog title is a whole-word prefix of the scraped title
//   - the scraped title's name segment is a whole-word prefix of the
//     catalog title
func (r *Reconciler) titleMatches(internal, external string) bool {
	if internal == "" || external == "" {
		return false
	}

	prefix := strings.TrimSpace(firstRunes(external, r.prefixLen))
	if prefix != "" && strings.Contains(internal, prefix) {
		return true
	}
	if hasWordPrefix(external, internal) {
		return true
	}
	stem := leadingSegment(external)
	return utf8.RuneCountInString(stem) >= minStemLen && hasWordPrefix(internal, stem)
}

// hasWordPrefix reports whether prefix starts s and ends on a word boundary.
func hasWordPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[len(prefix):])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

func leadingSegment(title string) string {
	cut := len(title)
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	if cut == len(title) {
		return ""
	}
	return strings.TrimSpace(title[:cut])
}

func normTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
