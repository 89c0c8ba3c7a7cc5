package utils

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a fixed minimum gap between the end of one request and the
// start of the next. It does not allow bursts: callers are sequential.
type Pacer struct {
	gap time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewPacer creates a Pacer; a gap of zero disables waiting.
func NewPacer(gap time.Duration) *Pacer {
	return &Pacer{gap: gap}
}

// Wait blocks until the gap since the last Done has elapsed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	last := p.lastRequest
	p.mu.Unlock()

	if last.IsZero() || p.gap <= 0 {
		return ctx.Err()
	}
	return Sleep(ctx, p.gap-time.Since(last))
}

// Done records that a request just finished.
func (p *Pacer) Done() {
	p.mu.Lock()
	p.lastRequest = time.Now()
	p.mu.Unlock()
}

// IDSet is a set of identifiers that remembers first-insertion order. It is
// not safe for concurrent use.
type IDSet struct {
	seen  map[string]struct{}
	order []string
}

// NewIDSet creates an empty IDSet.
func NewIDSet() *IDSet {
	return &IDSet{seen: make(map[string]struct{})}
}

// Add returns true if the id was newly added, false if already present.
func (s *IDSet) Add(id string) bool {
	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Size returns the number of unique ids tracked.
func (s *IDSet) Size() int {
	return len(s.seen)
}

// Items returns a copy of the ids in first-insertion order.
func (s *IDSet) Items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
