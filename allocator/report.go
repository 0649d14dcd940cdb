package allocator

// Outcome records how one requester was resolved during a pass.
type Outcome struct {
	Sequence    int // 1-based processing position
	RequesterID string
	ResourceID  string // empty when waitlisted
	Phase       Phase
	Score       float64
	// PreferenceRank is the 1-based index of the matched preference, 0 when
	// the requester was placed by fallback or waitlisted.
	PreferenceRank int
}

func (o Outcome) Allocated() bool { return o.Phase != PhaseWaitlist }

// Assignment pairs a requester with the resource it received.
type Assignment struct {
	RequesterID string
	ResourceID  string
}

// Report is the result of one allocation pass. Outcomes are in processing
// order, which is the queue's extraction order.
type Report struct {
	RunID    string
	Outcomes []Outcome

	totalCapacity int
	totalOccupied int
}

// Assignments lists allocated requesters in processing order.
func (r *Report) Assignments() []Assignment {
	var out []Assignment
	for _, o := range r.Outcomes {
		if o.Allocated() {
			out = append(out, Assignment{RequesterID: o.RequesterID, ResourceID: o.ResourceID})
		}
	}
	return out
}

// Waitlist lists waitlisted requester ids in processing order.
func (r *Report) Waitlist() []string {
	var out []string
	for _, o := range r.Outcomes {
		if !o.Allocated() {
			out = append(out, o.RequesterID)
		}
	}
	return out
}

// Stats aggregates the report. Pool totals are taken when the pass ends.
func (r *Report) Stats() Stats {
	s := Stats{
		Total:         len(r.Outcomes),
		TotalCapacity: r.totalCapacity,
		TotalOccupied: r.totalOccupied,
	}
	for _, o := range r.Outcomes {
		switch {
		case !o.Allocated():
			s.Waitlisted++
		case o.PreferenceRank > 0:
			s.Allocated++
			s.PreferenceMatches++
		default:
			s.Allocated++
		}
	}
	return s
}

// Stats holds the aggregate counts of a pass.
type Stats struct {
	Total             int
	Allocated         int
	Waitlisted        int
	PreferenceMatches int
	TotalCapacity     int
	TotalOccupied     int
}

// SuccessRate is 100*allocated/total. It returns ErrUndefinedRate when no
// requesters were processed.
func (s Stats) SuccessRate() (float64, error) {
	if s.Total == 0 {
		return 0, ErrUndefinedRate
	}
	return 100 * float64(s.Allocated) / float64(s.Total), nil
}

// Utilization is 100*occupied/capacity. It returns ErrUndefinedRate for a
// pool with no capacity.
func (s Stats) Utilization() (float64, error) {
	if s.TotalCapacity == 0 {
		return 0, ErrUndefinedRate
	}
	return 100 * float64(s.TotalOccupied) / float64(s.TotalCapacity), nil
}
