package models

import "time"

// InternalProperty is a row of the site's own property catalog, reduced to the
// fields the linking feature reads or writes.
type InternalProperty struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Status      string              `json:"status,omitempty"`
	ExternalRef *ExternalListingRef `json:"airbnb,omitempty"`
	Synced      bool                `json:"airbnb_synced"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ExternalID returns the linked listing id, or "" when unlinked.
func (p *InternalProperty) ExternalID() string {
	if p.ExternalRef == nil {
		return ""
	}
	return p.ExternalRef.ID
}

type MatchBasis string

const (
	MatchExplicitIndex MatchBasis = "explicit_index"
	MatchTitle         MatchBasis = "title_match"
	// MatchManual is an identifier typed in by an operator.
	MatchManual MatchBasis = "manual"
)

type Action string

const (
	ActionLink   Action = "link"
	ActionUnlink Action = "unlink"
)

// ReconciliationInstruction is a proposed change to one catalog row. It is
// never applied without an operator confirming it.
type ReconciliationInstruction struct {
	InternalPropertyID int64      `json:"internal_property_id"`
	ExternalID         string     `json:"external_id,omitempty"`
	MatchBasis         MatchBasis `json:"match_basis"`
	Action             Action     `json:"action"`
	Confidence         float64    `json:"confidence"`
	NeedsReview        bool       `json:"needs_review"`
	Note               string     `json:"note,omitempty"`
}

// AmbiguousMatch lists every plausible pairing the engine refused to pick
// between. Exactly one of ExternalID or PropertyID identifies the side that
// had more than one candidate.
type AmbiguousMatch struct {
	ExternalID           string   `json:"external_id,omitempty"`
	ExternalTitle        string   `json:"external_title,omitempty"`
	CandidatePropertyIDs []int64  `json:"candidate_property_ids,omitempty"`
	PropertyID           int64    `json:"property_id,omitempty"`
	CandidateExternalIDs []string `json:"candidate_external_ids,omitempty"`
}

// Reconciliation is the engine's full output for one batch.
type Reconciliation struct {
	Instructions []ReconciliationInstruction `json:"instructions"`
	Ambiguities  []AmbiguousMatch            `json:"ambiguities,omitempty"`
}
