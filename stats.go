package fusioncache

// Stats holds hit and eviction counters for a single cache tier.
type Stats struct {
	Hits      int64 // reads that found the key
	Misses    int64 // reads that did not
	Evictions int64 // entries evicted to make room
	Dropped   int64 // values rejected outright for exceeding the tier capacity
}
