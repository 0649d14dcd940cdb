package allocator

import (
	"slices"

	"github.com/pkg/errors"
)

// Roster is the single owner of requester records for a batch. Queues and
// reports refer to the same records, so outcome changes are visible through
// every view.
type Roster struct {
	byID  map[string]*Requester
	order []*Requester // intake order
}

// NewRoster rejects empty and duplicate ids.
func NewRoster(requesters ...*Requester) (*Roster, error) {
	ro := &Roster{byID: make(map[string]*Requester, len(requesters))}
	for _, r := range requesters {
		if err := ro.Add(r); err != nil {
			return nil, err
		}
	}
	return ro, nil
}

// Add appends a requester to the roster.
func (ro *Roster) Add(r *Requester) error {
	if r == nil || r.ID == "" {
		return errors.New("requester id is required")
	}
	if _, exists := ro.byID[r.ID]; exists {
		return errors.Wrapf(ErrDuplicateRequester, "%q", r.ID)
	}
	ro.byID[r.ID] = r
	ro.order = append(ro.order, r)
	return nil
}

func (ro *Roster) Get(id string) (*Requester, bool) {
	r, ok := ro.byID[id]
	return r, ok
}

func (ro *Roster) Len() int { return len(ro.order) }

// All returns the requesters in intake order.
func (ro *Roster) All() []*Requester { return slices.Clone(ro.order) }

// Queue starts a fresh run: every requester is reset to Pending and inserted,
// in intake order, into a new RankedQueue.
func (ro *Roster) Queue() *RankedQueue {
	q := NewRankedQueue()
	for _, r := range ro.order {
		r.resetOutcome()
		q.Insert(r)
	}
	return q
}
