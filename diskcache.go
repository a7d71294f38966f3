package fusioncache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	indexFileName        = "cache.index"
	compressionLevel     = 3    // zstd level, balanced
	compressionThreshold = 1024 // don't bother below 1KiB
)

// DiskCache is the disk tier: a persistent key-value store with its own
// capacity accounting. Entries live one per file under the cache
// directory, named by a hash of the key; an index file maps keys to
// entries and is persisted on Close. Entries larger than the
// compression threshold are stored zstd-compressed when that shrinks
// them.
//
// When the capacity would be exceeded, the entries with the oldest
// access time are evicted.
//
// Unlike MemCache, DiskCache is internally synchronized and safe for
// concurrent use on its own.
type DiskCache struct {
	basePath string
	maxSize  int64
	size     int64 // bytes on disk

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu     sync.RWMutex
	stats  Stats
	logger *log.Logger
}

// diskEntry is one record of the disk cache index. Fields are exported
// for gob.
type diskEntry struct {
	Key          string
	FilePath     string
	Kind         Kind
	Size         int64 // size on disk, possibly compressed
	OriginalSize int64
	Timestamp    time.Time
	LastAccess   time.Time
	Compressed   bool
}

// NewDiskCache opens (or creates) a disk cache rooted at dir with the
// given capacity in bytes. An existing index is reloaded, so entries
// written by an earlier process stay visible.
func NewDiskCache(dir string, maxSize int64) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: dir,
		maxSize:  maxSize,
		index:    make(map[string]*diskEntry),
		logger:   log.Default(),
	}

	var err error
	dc.encoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		// Non-fatal: start over with an empty index.
		dc.logger.Warn("disk cache index unreadable, starting empty",
			"path", filepath.Join(dir, indexFileName), "err", err)
		dc.index = make(map[string]*diskEntry)
	}
	dc.recalculateSize()

	return dc, nil
}

// Put encodes and stores a value. The replaced entry's space is
// reclaimed first, then older entries are evicted until the new one
// fits. A value that cannot fit alone returns ErrItemTooLarge.
func (dc *DiskCache) Put(key string, v Value) error {
	encoded, err := v.encode()
	if err != nil {
		return err
	}
	originalSize := int64(len(encoded))

	dataToWrite := encoded
	compressed := false
	if originalSize > compressionThreshold {
		if c := dc.encoder.EncodeAll(encoded, nil); len(c) < len(encoded) {
			dataToWrite = c
			compressed = true
		}
	}
	diskSize := int64(len(dataToWrite))

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if existing, ok := dc.index[key]; ok {
		dc.size -= existing.Size
		os.Remove(existing.FilePath)
		delete(dc.index, key)
	}

	if diskSize > dc.maxSize {
		return ErrItemTooLarge
	}

	for dc.size+diskSize > dc.maxSize && len(dc.index) > 0 {
		dc.evictOldest()
	}

	filePath := dc.entryPath(key)
	if err := writeFileAtomic(filePath, dataToWrite); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &diskEntry{
		Key:          key,
		FilePath:     filePath,
		Kind:         v.Kind(),
		Size:         diskSize,
		OriginalSize: originalSize,
		Timestamp:    now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	dc.size += diskSize

	return nil
}

// Get returns the stored value for key, whatever its kind.
func (dc *DiskCache) Get(key string) (Value, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.getLocked(key, -1)
}

// GetString returns the text value for key. A key holding another kind
// is a miss.
func (dc *DiskCache) GetString(key string) (string, bool) {
	v, ok := dc.get(key, KindString)
	if !ok {
		return "", false
	}
	return string(v.(String)), true
}

// GetRecord returns the JSON object value for key.
func (dc *DiskCache) GetRecord(key string) (Record, bool) {
	v, ok := dc.get(key, KindRecord)
	if !ok {
		return nil, false
	}
	return v.(Record), true
}

// GetList returns the JSON array value for key.
func (dc *DiskCache) GetList(key string) (List, bool) {
	v, ok := dc.get(key, KindList)
	if !ok {
		return nil, false
	}
	return v.(List), true
}

// GetBytes returns the raw byte value for key.
func (dc *DiskCache) GetBytes(key string) ([]byte, bool) {
	v, ok := dc.get(key, KindBytes)
	if !ok {
		return nil, false
	}
	return []byte(v.(Bytes)), true
}

// GetImage returns the image value for key, decoded from PNG.
func (dc *DiskCache) GetImage(key string) (Image, bool) {
	v, ok := dc.get(key, KindImage)
	if !ok {
		return Image{}, false
	}
	return v.(Image), true
}

// GetBlob returns the gob-decoded payload for key.
func (dc *DiskCache) GetBlob(key string) (any, bool) {
	v, ok := dc.get(key, KindBlob)
	if !ok {
		return nil, false
	}
	return v.(Blob).V, true
}

func (dc *DiskCache) get(key string, kind Kind) (Value, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.getLocked(key, kind)
}

// getLocked reads and decodes an entry. kind < 0 accepts any kind.
// Unreadable or corrupted entries are dropped from the index and
// reported as misses; the disk tier heals itself rather than failing
// reads.
func (dc *DiskCache) getLocked(key string, kind Kind) (Value, bool) {
	entry, ok := dc.index[key]
	if !ok || (kind >= 0 && entry.Kind != kind) {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		dc.dropEntryLocked(entry, err)
		return nil, false
	}

	if entry.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
		if err != nil {
			dc.dropEntryLocked(entry, err)
			return nil, false
		}
	}

	v, err := decodeValue(entry.Kind, data)
	if err != nil {
		dc.dropEntryLocked(entry, err)
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.stats.Hits++
	return v, true
}

// dropEntryLocked removes an entry whose backing file is gone or
// corrupted.
func (dc *DiskCache) dropEntryLocked(entry *diskEntry, cause error) {
	dc.logger.Warn("dropping unreadable cache entry", "key", entry.Key, "err", cause)
	os.Remove(entry.FilePath)
	delete(dc.index, entry.Key)
	dc.size -= entry.Size
	dc.stats.Misses++
}

// Contains reports whether key is present, without reading the file or
// touching the access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	_, ok := dc.index[key]
	return ok
}

// Remove deletes the entry for key. Removing an absent key is a no-op.
func (dc *DiskCache) Remove(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		return nil
	}
	os.Remove(entry.FilePath)
	delete(dc.index, key)
	dc.size -= entry.Size
	return nil
}

// Clear removes every entry and persists the empty index.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		os.Remove(entry.FilePath)
	}
	dc.index = make(map[string]*diskEntry)
	dc.size = 0

	return dc.saveIndex()
}

// Size returns the bytes currently used on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.size
}

// MaxSize returns the capacity in bytes.
func (dc *DiskCache) MaxSize() int64 { return dc.maxSize }

// Len returns the number of stored entries.
func (dc *DiskCache) Len() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return len(dc.index)
}

// Dir returns the cache directory.
func (dc *DiskCache) Dir() string { return dc.basePath }

// Stats returns the tier's counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.stats
}

// Close persists the index. The cache must not be used afterwards.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.saveIndex()
}

func (dc *DiskCache) entryPath(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(dc.basePath, hex.EncodeToString(hash[:16])+".cache")
}

// evictOldest removes the entry with the oldest access time.
func (dc *DiskCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range dc.index {
		if oldestKey == "" || entry.LastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccess
		}
	}
	if oldestKey == "" {
		return
	}
	entry := dc.index[oldestKey]
	os.Remove(entry.FilePath)
	delete(dc.index, oldestKey)
	dc.size -= entry.Size
	dc.stats.Evictions++
}

func (dc *DiskCache) loadIndex() error {
	file, err := os.Open(filepath.Join(dc.basePath, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first run
		}
		return err
	}
	defer file.Close()
	return gob.NewDecoder(file).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	indexPath := filepath.Join(dc.basePath, indexFileName)
	tempPath := indexPath + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(file).Encode(dc.index)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, indexPath)
}

// recalculateSize rebuilds the size counter from the index, dropping
// entries whose files vanished between runs.
func (dc *DiskCache) recalculateSize() {
	dc.size = 0
	for key, entry := range dc.index {
		if _, err := os.Stat(entry.FilePath); err != nil {
			delete(dc.index, key)
			continue
		}
		dc.size += entry.Size
	}
}

// writeFileAtomic writes data via a temp file and rename so readers
// never observe a partial entry.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
