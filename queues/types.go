package queues

import "context"

type AllocationStatus string

const (
	StatusAllocated  AllocationStatus = "Allocated"
	StatusWaitlisted AllocationStatus = "Waitlisted"
)

// AllocationResult is the envelope published for each processed requester.
type AllocationResult struct {
	EnvelopeVersion string           `json:"envelopeVersion"`
	Type            string           `json:"type"`
	RunID           string           `json:"runId"`
	Sequence        int              `json:"sequence"`
	RequesterID     string           `json:"requesterId"`
	Status          AllocationStatus `json:"status"`
	Phase           string           `json:"phase"`
	PriorityScore   float64          `json:"priorityScore"`
	ResourceID      *string          `json:"resourceId,omitempty"`
	PreferenceRank  *int             `json:"preferenceRank,omitempty"`
}

type Publisher interface {
	PublishResult(ctx context.Context, res *AllocationResult) error
}
