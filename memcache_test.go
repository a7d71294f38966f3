package fusioncache

import "testing"

func TestMemCache_PutGet(t *testing.T) {
	mc := NewMemCache(1024)

	evicted, err := mc.Put("greeting", String("hello"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(evicted) != 0 {
		t.Fatalf("unexpected evictions: %v", evicted)
	}

	v, ok := mc.Get("greeting")
	if !ok {
		t.Fatal("Get missed a key just put")
	}
	if string(v.(String)) != "hello" {
		t.Errorf("value = %v, want hello", v)
	}
	if mc.Size() != 5 {
		t.Errorf("Size = %d, want 5 (len of hello)", mc.Size())
	}
}

func TestMemCache_DropOversized(t *testing.T) {
	mc := NewMemCache(10)
	mc.Put("small", String("ok"))

	evicted, err := mc.Put("big", Bytes(make([]byte, 11)))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(evicted) != 0 {
		t.Errorf("oversized value caused evictions: %v", evicted)
	}
	if mc.Contains("big") {
		t.Error("oversized value was stored")
	}
	if !mc.Contains("small") {
		t.Error("existing entry was disturbed by a dropped put")
	}
	if got := mc.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestMemCache_Stats(t *testing.T) {
	mc := NewMemCache(20)
	mc.Put("a", String("aaaaaaaaaa")) // 10 bytes
	mc.Put("b", String("bbbbbbbbbb")) // evicts nothing yet, 20 total
	mc.Put("c", String("cccccccccc")) // evicts a

	mc.Get("c")
	mc.Get("gone")

	stats := mc.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}
