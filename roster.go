package sdr

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Roster is an in-memory lead list. Newly added and imported leads are placed
// at the front. Nothing is persisted.
type Roster struct {
	mu    sync.RWMutex
	leads []Lead
}

// NewRoster creates a roster holding leads in the given order.
func NewRoster(leads ...Lead) *Roster {
	return &Roster{leads: append([]Lead(nil), leads...)}
}

// Add validates a lead, assigns an ID when missing and prepends it.
func (r *Roster) Add(lead Lead) (Lead, error) {
	added, err := r.Import(lead)
	if err != nil {
		return Lead{}, err
	}
	return added[0], nil
}

// Import validates every lead before prepending any of them, keeping their
// relative order. Leads without an ID get a fresh one.
func (r *Roster) Import(leads ...Lead) ([]Lead, error) {
	out := make([]Lead, len(leads))
	for i, l := range leads {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("lead %d: %w", i, err)
		}
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		out[i] = l
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(append([]Lead(nil), out...), r.leads...)
	return out, nil
}

// List returns a copy of all leads.
func (r *Roster) List() []Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Lead(nil), r.leads...)
}

// Len returns the number of leads.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

// DefaultLeads returns the demo leads shown when no import is given.
func DefaultLeads() []Lead {
	return []Lead{
		{ID: "1", Name: "Roberto Almeida", Company: "Logística Express", Phone: "(11) 99999-1001", Segment: SegmentCold},
		{ID: "2", Name: "Juliana Torres", Company: "Tech Solutions", Phone: "(21) 98888-2002", Segment: SegmentWarm},
		{ID: "3", Name: "Carlos Mendes", Company: "Frota Segura", Phone: "(31) 97777-3003", Segment: SegmentHot},
	}
}
