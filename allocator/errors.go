package allocator

import "github.com/pkg/errors"

var (
	// ErrEmptyQueue is returned when extracting from an empty RankedQueue.
	ErrEmptyQueue = errors.New("ranked queue is empty")

	// ErrNoSpaceOrUnknownResource is returned by Registry.AllocateOne when the
	// resource does not exist or is already at capacity.
	ErrNoSpaceOrUnknownResource = errors.New("resource unknown or at capacity")

	// ErrUndefinedRate is returned when a percentage would divide by zero
	// (no requesters processed, or a pool with zero total capacity).
	ErrUndefinedRate = errors.New("rate undefined for empty population")

	ErrDuplicateResource  = errors.New("duplicate resource id")
	ErrDuplicateRequester = errors.New("duplicate requester id")
	ErrInvalidResource    = errors.New("invalid resource")
)
