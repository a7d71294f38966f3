// Package fusioncache provides a two-tier key-value cache that mixes a
// bounded in-memory LRU cache with a persistent disk cache, and moves
// items between the two automatically.
//
// Values put through the unified API land in the memory tier when they
// fit; entries evicted from memory by the LRU policy cascade onto disk,
// and disk hits are promoted back into memory on read. Both tiers can
// also be used standalone through their direct handles.
//
// Cacheable values form a closed set of kinds: String, Record (JSON
// object), List (JSON array), Bytes, Image (decoded image, stored as
// PNG), and Blob (an opaque gob-serializable payload).
//
// FusionCache methods are safe for concurrent use and may block while
// doing disk IO.
package fusioncache
