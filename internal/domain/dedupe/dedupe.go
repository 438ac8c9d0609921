// Package dedupe makes run submissions idempotent.
//
// Clients may retry a submission with the same submission key; the deduper
// remembers which run the key produced so the retry returns that run instead
// of scoring a second one.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper remembers submission keys and the run each one produced.
type Deduper interface {
	// Remember atomically records key -> runID unless key is already known.
	// It returns the run recorded for key and whether key had been seen.
	Remember(ctx context.Context, key, runID string) (existing string, seen bool)

	// Forget drops key so the submission can be retried, e.g. when the
	// store rejected the run after it was remembered.
	Forget(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key   string
	runID string
}

type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at front
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper holding at most 50000 keys unless
// configured otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) Remember(_ context.Context, key, runID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		return el.Value.(entry).runID, true
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(entry{key: key, runID: runID})
	d.size.Add(1)
	return runID, false
}

func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(entry).key)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
