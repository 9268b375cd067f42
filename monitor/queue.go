package monitor

import (
	"sort"

	"github.com/fwojciec/httpmon"
)

// Queue is a list of resources kept sorted by NextRequestTime.
// Resources with equal times keep their insertion order.
// Queue is not safe for concurrent use; the scheduler goroutine owns it.
type Queue struct {
	items []*httpmon.Resource
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Len returns the number of queued resources.
func (q *Queue) Len() int {
	return len(q.items)
}

// Push inserts r at the position given by its NextRequestTime.
// Returns false if a resource with the same key is already queued.
func (q *Queue) Push(r *httpmon.Resource) bool {
	if _, ok := q.Find(r.Key()); ok {
		return false
	}
	i := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].NextRequestTime > r.NextRequestTime
	})
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = r
	return true
}

// Peek returns the earliest-due resource without removing it.
// The bool result is false if the queue is empty.
func (q *Queue) Peek() (*httpmon.Resource, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Pop removes and returns the earliest-due resource.
// The bool result is false if the queue is empty.
func (q *Queue) Pop() (*httpmon.Resource, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r, true
}

// Find returns the queued resource with the given key.
func (q *Queue) Find(key httpmon.ResourceKey) (*httpmon.Resource, bool) {
	for _, r := range q.items {
		if r.Key() == key {
			return r, true
		}
	}
	return nil, false
}

// Resources returns the queued resources in due order.
func (q *Queue) Resources() []*httpmon.Resource {
	out := make([]*httpmon.Resource, len(q.items))
	copy(out, q.items)
	return out
}
