package fusioncache

// MemCache is the memory tier: a size-bounded LRU store of Values.
//
// Like the LRUStore it wraps, MemCache is not synchronized. FusionCache
// guards it with its own mutex; callers holding a direct handle across
// goroutines must do the same.
type MemCache struct {
	store *LRUStore[Value]
	stats Stats
}

// NewMemCache creates a memory cache with the given capacity in bytes.
func NewMemCache(maxSize int64) *MemCache {
	return &MemCache{store: NewLRUStore[Value](maxSize)}
}

// Put estimates the value's size and stores it, returning any entries
// evicted to make room, oldest first. A value larger than the whole
// capacity is dropped without error; the Dropped counter records it.
func (mc *MemCache) Put(key string, v Value) ([]Entry[Value], error) {
	size, err := sizeOf(v)
	if err != nil {
		return nil, err
	}
	return mc.putSized(key, v, size), nil
}

// putSized stores a value whose size was already estimated, so the
// estimator runs exactly once per insertion even when the caller needed
// the size for routing.
func (mc *MemCache) putSized(key string, v Value, size int64) []Entry[Value] {
	if size > mc.store.MaxSize() {
		mc.stats.Dropped++
		return nil
	}
	evicted := mc.store.Put(key, v, size)
	mc.stats.Evictions += int64(len(evicted))
	return evicted
}

// Get returns the value for key and marks it most recently used.
func (mc *MemCache) Get(key string) (Value, bool) {
	v, ok := mc.store.Get(key)
	if ok {
		mc.stats.Hits++
	} else {
		mc.stats.Misses++
	}
	return v, ok
}

// Remove deletes the entry for key and returns its value.
func (mc *MemCache) Remove(key string) (Value, bool) {
	return mc.store.Remove(key)
}

// Clear empties the tier.
func (mc *MemCache) Clear() {
	mc.store.Clear()
}

// Contains reports whether key is resident, without touching recency.
func (mc *MemCache) Contains(key string) bool {
	return mc.store.Contains(key)
}

// Size returns the current used size in bytes.
func (mc *MemCache) Size() int64 { return mc.store.Size() }

// MaxSize returns the capacity in bytes.
func (mc *MemCache) MaxSize() int64 { return mc.store.MaxSize() }

// Len returns the number of resident entries.
func (mc *MemCache) Len() int { return mc.store.Len() }

// Snapshot returns an independent copy of the resident set.
func (mc *MemCache) Snapshot() map[string]Entry[Value] {
	return mc.store.Snapshot()
}

// Stats returns the tier's counters.
func (mc *MemCache) Stats() Stats { return mc.stats }

// Store exposes the underlying LRU store.
func (mc *MemCache) Store() *LRUStore[Value] { return mc.store }
