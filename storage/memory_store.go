package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"airbnb-reconciler/models"
)

// MemoryStore implements Catalog and CandidateStore in memory.
// It is safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	properties map[int64]*models.InternalProperty
	candidates map[string]*models.ExternalListingDetail
	baseURL    string
	now        func() time.Time
}

// NewMemoryStore seeds the catalog with props. baseURL builds the listing
// URL of linked ids that were never scraped.
func NewMemoryStore(baseURL string, props ...*models.InternalProperty) *MemoryStore {
	m := &MemoryStore{
		baseURL:    baseURL,
		properties: make(map[int64]*models.InternalProperty, len(props)),
		candidates: make(map[string]*models.ExternalListingDetail),
		now:        time.Now,
	}
	for _, p := range props {
		cp := *p
		m.properties[p.ID] = &cp
	}
	return m
}

func (m *MemoryStore) ListProperties(ctx context.Context) ([]*models.InternalProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.InternalProperty, 0, len(m.properties))
	for _, p := range m.properties {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetProperty(ctx context.Context, id int64) (*models.InternalProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.properties[id]
	if !ok {
		return nil, fmt.Errorf("memory: property %d: %w", id, ErrPropertyNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ApplyInstruction(ctx context.Context, instr models.ReconciliationInstruction) (*models.InternalProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.properties[instr.InternalPropertyID]
	if !ok {
		return nil, fmt.Errorf("memory: property %d: %w", instr.InternalPropertyID, ErrPropertyNotFound)
	}

	switch instr.Action {
	case models.ActionLink:
		if instr.ExternalID == "" {
			return nil, fmt.Errorf("memory: link property %d: empty external id", p.ID)
		}
		ref := &models.ExternalListingRef{ID: instr.ExternalID, URL: models.ListingURL(m.baseURL, instr.ExternalID)}
		if c, ok := m.candidates[instr.ExternalID]; ok && c.URL != "" {
			ref.URL = c.URL
		}
		p.ExternalRef = ref
		p.Synced = true
	case models.ActionUnlink:
		p.ExternalRef = nil
		p.Synced = false
	default:
		return nil, fmt.Errorf("memory: unknown action %q", instr.Action)
	}
	p.UpdatedAt = m.now()

	cp := *p
	return &cp, nil
}

func (m *MemoryStore) SaveCandidates(ctx context.Context, details []*models.ExternalListingDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range details {
		cp := *d
		m.candidates[d.ID] = &cp
	}
	return nil
}

func (m *MemoryStore) ListCandidates(ctx context.Context) ([]*models.ExternalListingDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ExternalListingDetail, 0, len(m.candidates))
	for _, d := range m.candidates {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
