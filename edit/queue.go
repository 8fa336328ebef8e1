package edit

import (
	"errors"
	"iter"
)

// Kind classifies a queued input file.
type Kind int

const (
	KindCode   Kind = iota // .jam assembly
	KindSource             // .jaf source
	KindDecl               // JSON declarations
	KindText               // string/message table
)

var kindNames = [...]string{"code", "source", "decl", "text"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Request is one input file waiting to be applied.
type Request struct {
	Kind Kind
	Path string
}

// DefaultQueueCapacity bounds a queue constructed with capacity <= 0.
const DefaultQueueCapacity = 256

// ErrQueueFull is returned by Push when the queue is at capacity. The
// queue is unchanged.
var ErrQueueFull = errors.New("input queue full")

// Queue holds input requests in submission order. Edits are
// order-sensitive, so the queue never reorders.
type Queue struct {
	reqs     []Request
	capacity int
	drained  bool
}

// NewQueue creates a queue bounded at capacity, or at
// DefaultQueueCapacity when capacity <= 0.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{capacity: capacity}
}

// Push appends a request, or fails with ErrQueueFull.
func (q *Queue) Push(kind Kind, path string) error {
	if len(q.reqs) >= q.capacity {
		return ErrQueueFull
	}
	q.reqs = append(q.reqs, Request{Kind: kind, Path: path})
	return nil
}

// Len reports the number of requests not yet drained.
func (q *Queue) Len() int {
	if q.drained {
		return 0
	}
	return len(q.reqs)
}

// Drain yields the queued requests in submission order and consumes
// them: a second drain yields nothing.
func (q *Queue) Drain() iter.Seq[Request] {
	return func(yield func(Request) bool) {
		if q.drained {
			return
		}
		q.drained = true
		for _, req := range q.reqs {
			if !yield(req) {
				return
			}
		}
	}
}
