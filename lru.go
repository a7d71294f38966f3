package fusioncache

import "container/list"

// Entry is a key-value pair resident in an LRUStore, together with the
// size recorded for it at insertion time.
type Entry[V any] struct {
	Key   string
	Value V
	Size  int64
}

// LRUStore is a capacity-bounded associative container with
// least-recently-used eviction driven by per-entry sizes. Sizes are
// supplied by the caller at insertion time and never recomputed.
//
// LRUStore carries no locks of its own. FusionCache serializes access
// with its mutex; a store shared between goroutines through a direct
// handle needs caller-side synchronization.
type LRUStore[V any] struct {
	maxSize int64
	size    int64

	items map[string]*list.Element
	order *list.List // front is most recently used
}

// NewLRUStore creates a store that keeps the sum of entry sizes at or
// below maxSize.
func NewLRUStore[V any](maxSize int64) *LRUStore[V] {
	return &LRUStore[V]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Put inserts or replaces the entry for key and marks it most recently
// used. It then evicts least-recently-used entries until the store fits
// its capacity again, and returns them in eviction order, oldest first.
//
// An entry larger than the capacity is accepted and immediately evicted
// along with everything before it, leaving the store empty; the
// returned list is the only signal for that.
func (s *LRUStore[V]) Put(key string, value V, size int64) []Entry[V] {
	if elem, ok := s.items[key]; ok {
		ent := elem.Value.(*Entry[V])
		s.size += size - ent.Size
		ent.Value = value
		ent.Size = size
		s.order.MoveToFront(elem)
	} else {
		elem := s.order.PushFront(&Entry[V]{Key: key, Value: value, Size: size})
		s.items[key] = elem
		s.size += size
	}

	var evicted []Entry[V]
	for s.size > s.maxSize && s.order.Len() > 0 {
		evicted = append(evicted, s.evictOldest())
	}
	return evicted
}

// Get returns the value for key and marks it most recently used.
func (s *LRUStore[V]) Get(key string) (V, bool) {
	elem, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	s.order.MoveToFront(elem)
	return elem.Value.(*Entry[V]).Value, true
}

// Peek returns the value for key without touching recency.
func (s *LRUStore[V]) Peek(key string) (V, bool) {
	elem, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return elem.Value.(*Entry[V]).Value, true
}

// Remove deletes the entry for key and returns its value.
func (s *LRUStore[V]) Remove(key string) (V, bool) {
	elem, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent := s.removeElement(elem)
	return ent.Value, true
}

// Clear removes all entries and resets the size to zero.
func (s *LRUStore[V]) Clear() {
	s.items = make(map[string]*list.Element)
	s.order.Init()
	s.size = 0
}

// Contains reports whether key is resident, without touching recency.
func (s *LRUStore[V]) Contains(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Size returns the sum of resident entry sizes.
func (s *LRUStore[V]) Size() int64 { return s.size }

// MaxSize returns the capacity set at construction.
func (s *LRUStore[V]) MaxSize() int64 { return s.maxSize }

// Len returns the number of resident entries.
func (s *LRUStore[V]) Len() int { return len(s.items) }

// Snapshot returns an independent copy of the resident set. Iterating
// it never observes later mutation of the store.
func (s *LRUStore[V]) Snapshot() map[string]Entry[V] {
	snap := make(map[string]Entry[V], len(s.items))
	for key, elem := range s.items {
		snap[key] = *elem.Value.(*Entry[V])
	}
	return snap
}

// evictOldest removes the least recently used entry.
func (s *LRUStore[V]) evictOldest() Entry[V] {
	return s.removeElement(s.order.Back())
}

func (s *LRUStore[V]) removeElement(elem *list.Element) Entry[V] {
	ent := elem.Value.(*Entry[V])
	s.order.Remove(elem)
	delete(s.items, ent.Key)
	s.size -= ent.Size
	return *ent
}
