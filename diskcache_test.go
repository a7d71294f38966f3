package fusioncache

import (
	"bytes"
	"encoding/gob"
	"image"
	"image/color"
	"testing"
)

func TestDiskCache_RoundTrip(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("text", String("hello disk")); err != nil {
		t.Fatalf("Put string: %v", err)
	}
	if err := dc.Put("rec", Record{"name": "glow", "stars": float64(42)}); err != nil {
		t.Fatalf("Put record: %v", err)
	}
	if err := dc.Put("list", List{"a", float64(1), true}); err != nil {
		t.Fatalf("Put list: %v", err)
	}
	if err := dc.Put("raw", Bytes{0x00, 0xff, 0x10}); err != nil {
		t.Fatalf("Put bytes: %v", err)
	}

	s, ok := dc.GetString("text")
	if !ok || s != "hello disk" {
		t.Errorf("GetString = %q, %v", s, ok)
	}

	rec, ok := dc.GetRecord("rec")
	if !ok || rec["name"] != "glow" || rec["stars"] != float64(42) {
		t.Errorf("GetRecord = %v, %v", rec, ok)
	}

	l, ok := dc.GetList("list")
	if !ok || len(l) != 3 || l[0] != "a" {
		t.Errorf("GetList = %v, %v", l, ok)
	}

	raw, ok := dc.GetBytes("raw")
	if !ok || !bytes.Equal(raw, []byte{0x00, 0xff, 0x10}) {
		t.Errorf("GetBytes = %v, %v", raw, ok)
	}
}

func TestDiskCache_ImageRoundTrip(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	if err := dc.Put("img", Image{Image: src}); err != nil {
		t.Fatalf("Put image: %v", err)
	}

	img, ok := dc.GetImage("img")
	if !ok {
		t.Fatal("GetImage missed")
	}
	if img.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", img.Bounds(), src.Bounds())
	}
	r, g, b, _ := img.At(1, 2).RGBA()
	if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
		t.Errorf("pixel (1,2) = %d,%d,%d; want 200,100,50", r>>8, g>>8, b>>8)
	}
}

type testBlobPayload struct {
	Name  string
	Count int
}

func TestDiskCache_BlobRoundTrip(t *testing.T) {
	gob.Register(testBlobPayload{})

	dc, err := NewDiskCache(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("blob", Blob{V: testBlobPayload{Name: "x", Count: 3}}); err != nil {
		t.Fatalf("Put blob: %v", err)
	}

	got, ok := dc.GetBlob("blob")
	if !ok {
		t.Fatal("GetBlob missed")
	}
	payload, ok := got.(testBlobPayload)
	if !ok || payload.Name != "x" || payload.Count != 3 {
		t.Errorf("GetBlob = %#v", got)
	}
}

func TestDiskCache_KindMismatchIsMiss(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	dc.Put("text", String("not bytes"))

	if _, ok := dc.GetBytes("text"); ok {
		t.Error("GetBytes returned a value stored as string")
	}
	if _, ok := dc.GetString("text"); !ok {
		t.Error("GetString missed its own kind")
	}
}

func TestDiskCache_Eviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 100)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	// Each value is 40 bytes, capacity fits two.
	for _, key := range []string{"a", "b", "c"} {
		if err := dc.Put(key, Bytes(make([]byte, 40))); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	if dc.Size() > dc.MaxSize() {
		t.Errorf("size %d exceeds capacity %d", dc.Size(), dc.MaxSize())
	}
	if dc.Contains("a") {
		t.Error("oldest entry a survived eviction")
	}
	if !dc.Contains("c") {
		t.Error("newest entry c was evicted")
	}
	if got := dc.Stats().Evictions; got == 0 {
		t.Error("eviction counter not incremented")
	}
}

func TestDiskCache_ItemTooLarge(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("big", Bytes(make([]byte, 64))); err != ErrItemTooLarge {
		t.Errorf("Put oversized = %v, want ErrItemTooLarge", err)
	}
}

func TestDiskCache_IndexReload(t *testing.T) {
	dir := t.TempDir()

	dc, err := NewDiskCache(dir, 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	dc.Put("persisted", String("still here"))
	size := dc.Size()
	if err := dc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskCache(dir, 1024*1024)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	v, ok := reopened.GetString("persisted")
	if !ok || v != "still here" {
		t.Errorf("after reload GetString = %q, %v", v, ok)
	}
	if reopened.Size() != size {
		t.Errorf("size after reload = %d, want %d", reopened.Size(), size)
	}
}

func TestDiskCache_Compression(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	// Highly compressible and over the threshold.
	value := bytes.Repeat([]byte("fusioncache "), 1000)
	if err := dc.Put("compressible", Bytes(value)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if dc.Size() >= int64(len(value)) {
		t.Errorf("on-disk size %d not smaller than original %d", dc.Size(), len(value))
	}

	got, ok := dc.GetBytes("compressible")
	if !ok || !bytes.Equal(got, value) {
		t.Error("compressed value did not round trip")
	}
}

func TestDiskCache_RemoveAndClear(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	dc.Put("a", String("A"))
	dc.Put("b", String("B"))

	if err := dc.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if dc.Contains("a") {
		t.Error("a still present after Remove")
	}
	if err := dc.Remove("a"); err != nil {
		t.Errorf("Remove of absent key errored: %v", err)
	}

	if err := dc.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if dc.Len() != 0 || dc.Size() != 0 {
		t.Errorf("cache not empty after Clear: len=%d size=%d", dc.Len(), dc.Size())
	}
}
