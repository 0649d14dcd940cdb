package allocator

import (
	"container/heap"
	"iter"
	"math"
	"slices"
	"sync"
)

// TieEpsilon is the score distance below which two requesters are considered
// tied and ordered by submission time instead.
const TieEpsilon = 0.001

// Before reports whether a ranks ahead of b. Scores closer than TieEpsilon are
// tied and the earlier submission wins; otherwise the lower score wins.
func Before(a, b *Requester) bool {
	if math.Abs(a.score-b.score) < TieEpsilon {
		return a.SubmittedAt < b.SubmittedAt
	}
	return a.score < b.score
}

// RankEntry is one line of the ranking report.
type RankEntry struct {
	Rank        int
	RequesterID string
	Name        string
	Score       float64
	Class       PriorityClass
	Merit       float64
}

type queueEntry struct {
	req *Requester
	seq uint64 // insertion order, last tie-breaker
}

func (e queueEntry) before(o queueEntry) bool {
	if Before(e.req, o.req) {
		return true
	}
	if Before(o.req, e.req) {
		return false
	}
	return e.seq < o.seq
}

type entryHeap []queueEntry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(queueEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = queueEntry{}
	*h = old[:n-1]
	return e
}

// RankedQueue is a min-first priority queue of requesters. Requesters with an
// identical score and submission time leave in insertion order.
type RankedQueue struct {
	mu      sync.RWMutex
	entries entryHeap
	nextSeq uint64
}

// NewRankedQueue creates an empty queue.
func NewRankedQueue() *RankedQueue {
	return &RankedQueue{}
}

// Insert adds a requester. Ids are not checked for duplicates.
func (q *RankedQueue) Insert(r *Requester) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.entries, queueEntry{req: r, seq: q.nextSeq})
	q.nextSeq++
}

// ExtractMin removes and returns the highest-priority requester. It returns
// ErrEmptyQueue when the queue is empty.
func (q *RankedQueue) ExtractMin() (*Requester, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return nil, ErrEmptyQueue
	}
	e := heap.Pop(&q.entries).(queueEntry)
	return e.req, nil
}

// Peek returns the highest-priority requester without removing it.
func (q *RankedQueue) Peek() (*Requester, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.entries) == 0 {
		return nil, ErrEmptyQueue
	}
	return q.entries[0].req, nil
}

func (q *RankedQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

func (q *RankedQueue) IsEmpty() bool { return q.Len() == 0 }

// Snapshot yields the queued requesters in extraction order without touching
// the live queue. The sequence reflects the queue at the time of the call and
// may be ranged over more than once.
func (q *RankedQueue) Snapshot() iter.Seq[*Requester] {
	q.mu.RLock()
	frozen := slices.Clone(q.entries)
	q.mu.RUnlock()

	return func(yield func(*Requester) bool) {
		work := slices.Clone(frozen)
		for len(work) > 0 {
			e := heap.Pop(&work).(queueEntry)
			if !yield(e.req) {
				return
			}
		}
	}
}

// Ranking builds the ranking report from a snapshot.
func (q *RankedQueue) Ranking() []RankEntry {
	out := make([]RankEntry, 0, q.Len())
	for r := range q.Snapshot() {
		out = append(out, RankEntry{
			Rank:        len(out) + 1,
			RequesterID: r.ID,
			Name:        r.Name,
			Score:       r.score,
			Class:       r.Class,
			Merit:       r.Merit,
		})
	}
	return out
}

// Position returns the 1-based extraction position of a requester.
func (q *RankedQueue) Position(requesterID string) (int, bool) {
	pos := 0
	for r := range q.Snapshot() {
		pos++
		if r.ID == requesterID {
			return pos, true
		}
	}
	return 0, false
}
