package fusioncache

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Config configures a FusionCache. The zero value of DisableFusion
// keeps the unified API active, matching the default fusion mode.
type Config struct {
	// MaxMemSize is the memory tier capacity in bytes. 0 disables the
	// memory tier entirely.
	MaxMemSize int64

	// MaxDiskSize is the disk tier capacity in bytes. 0 disables the
	// disk tier entirely.
	MaxDiskSize int64

	// DiskDir is the disk tier directory. Empty means the user's
	// standard cache directory plus DefaultDiskCacheDirName.
	DiskDir string

	// DisableFusion turns off the unified Put/Get API, leaving only the
	// direct tier handles usable.
	DisableFusion bool

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// FusionCache mixes a memory cache and a disk cache behind one API:
// puts land in memory when they fit, memory evictions cascade onto
// disk, and disk hits are promoted back into memory on read.
//
// All unified operations hold one exclusive lock for their whole
// duration, disk IO included, so they are mutually exclusive and may
// block.
type FusionCache struct {
	mu     sync.Mutex
	mem    *MemCache  // nil when the memory tier is disabled
	disk   *DiskCache // nil when the disk tier is disabled
	fusion bool
	logger *log.Logger
}

// New creates a FusionCache. Negative capacities fail with
// ErrInvalidCapacity; a zero capacity disables that tier.
func New(cfg Config) (*FusionCache, error) {
	if cfg.MaxMemSize < 0 || cfg.MaxDiskSize < 0 {
		return nil, ErrInvalidCapacity
	}

	fc := &FusionCache{
		fusion: !cfg.DisableFusion,
		logger: cfg.Logger,
	}
	if fc.logger == nil {
		fc.logger = log.Default()
	}

	if cfg.MaxMemSize > 0 {
		fc.mem = NewMemCache(cfg.MaxMemSize)
	}
	if cfg.MaxDiskSize > 0 {
		dir := cfg.DiskDir
		if dir == "" {
			var err error
			if dir, err = DefaultDiskCacheDir(); err != nil {
				return nil, err
			}
		}
		disk, err := NewDiskCache(dir, cfg.MaxDiskSize)
		if err != nil {
			return nil, err
		}
		disk.logger = fc.logger
		fc.disk = disk
	}

	return fc, nil
}

// Put stores a value: into the memory tier when it fits there, else
// straight onto disk. Entries evicted from memory in the process are
// written onto disk, one by one, oldest first. With no disk tier, both
// evicted entries and values too large for memory are discarded
// silently; that loss is intentional.
//
// Returns ErrFusionDisabled when fusion mode is off.
func (fc *FusionCache) Put(key string, v Value) error {
	if !fc.fusion {
		return ErrFusionDisabled
	}
	size, err := sizeOf(v)
	if err != nil {
		return err
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.mem != nil && size <= fc.mem.MaxSize() {
		evicted := fc.mem.putSized(key, v, size)
		if fc.disk == nil {
			if len(evicted) > 0 {
				fc.logger.Debug("memory evictions discarded, no disk tier",
					"count", len(evicted))
			}
			return nil
		}
		for _, ent := range evicted {
			fc.logger.Debug("cascading evicted entry to disk",
				"key", ent.Key, "size", ent.Size)
			if err := fc.disk.Put(ent.Key, ent.Value); err != nil {
				return err
			}
		}
		return nil
	}

	if fc.disk != nil {
		return fc.disk.Put(key, v)
	}

	// No tier can take the value; it is dropped on purpose.
	fc.logger.Debug("value dropped, no tier can hold it", "key", key, "size", size)
	return nil
}

// GetString returns the text value for key.
func (fc *FusionCache) GetString(key string) (string, bool, error) {
	v, ok, err := fc.get(key, KindString)
	if !ok || err != nil {
		return "", false, err
	}
	return string(v.(String)), true, nil
}

// GetRecord returns the JSON object value for key.
func (fc *FusionCache) GetRecord(key string) (Record, bool, error) {
	v, ok, err := fc.get(key, KindRecord)
	if !ok || err != nil {
		return nil, false, err
	}
	return v.(Record), true, nil
}

// GetList returns the JSON array value for key.
func (fc *FusionCache) GetList(key string) (List, bool, error) {
	v, ok, err := fc.get(key, KindList)
	if !ok || err != nil {
		return nil, false, err
	}
	return v.(List), true, nil
}

// GetBytes returns the raw byte value for key.
func (fc *FusionCache) GetBytes(key string) ([]byte, bool, error) {
	v, ok, err := fc.get(key, KindBytes)
	if !ok || err != nil {
		return nil, false, err
	}
	return []byte(v.(Bytes)), true, nil
}

// GetImage returns the image value for key.
func (fc *FusionCache) GetImage(key string) (Image, bool, error) {
	v, ok, err := fc.get(key, KindImage)
	if !ok || err != nil {
		return Image{}, false, err
	}
	return v.(Image), true, nil
}

// GetBlob returns the opaque payload for key.
func (fc *FusionCache) GetBlob(key string) (any, bool, error) {
	v, ok, err := fc.get(key, KindBlob)
	if !ok || err != nil {
		return nil, false, err
	}
	return v.(Blob).V, true, nil
}

// get serves every typed getter: memory tier first, then disk with
// promotion back into memory. A key resident with a different kind is
// a miss at that tier. Returns ErrFusionDisabled when fusion mode is
// off.
func (fc *FusionCache) get(key string, kind Kind) (Value, bool, error) {
	if !fc.fusion {
		return nil, false, ErrFusionDisabled
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.mem != nil {
		if v, ok := fc.mem.Get(key); ok && v.Kind() == kind {
			return v, true, nil
		}
	}

	if fc.disk != nil {
		if v, ok := fc.disk.get(key, kind); ok {
			if fc.mem != nil {
				fc.promote(key, v)
			}
			return v, true, nil
		}
	}

	return nil, false, nil
}

// promote copies a disk hit into the memory tier, cascading any
// resulting memory evictions back onto disk. Promotion is best effort:
// a failing size estimate or disk write only logs.
func (fc *FusionCache) promote(key string, v Value) {
	size, err := sizeOf(v)
	if err != nil {
		fc.logger.Debug("promotion skipped, size estimate failed", "key", key, "err", err)
		return
	}
	evicted := fc.mem.putSized(key, v, size)
	if fc.disk == nil {
		return
	}
	for _, ent := range evicted {
		if err := fc.disk.Put(ent.Key, ent.Value); err != nil {
			fc.logger.Debug("cascade during promotion failed", "key", ent.Key, "err", err)
		}
	}
}

// Remove deletes key from both tiers, fusion mode or not, and returns
// the value removed from the memory tier. The disk tier's outcome is
// deliberately discarded: a key only resident on disk still gets
// removed, but Remove reports a miss.
func (fc *FusionCache) Remove(key string) (Value, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var removed Value
	var ok bool
	if fc.mem != nil {
		removed, ok = fc.mem.Remove(key)
	}
	if fc.disk != nil {
		if err := fc.disk.Remove(key); err != nil {
			fc.logger.Debug("disk remove failed", "key", key, "err", err)
		}
	}
	return removed, ok
}

// Clear empties both tiers.
func (fc *FusionCache) Clear() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.mem != nil {
		fc.mem.Clear()
	}
	if fc.disk != nil {
		return fc.disk.Clear()
	}
	return nil
}

// Size returns the used sizes of both tiers summed; an absent tier
// contributes 0.
func (fc *FusionCache) Size() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.memSizeLocked() + fc.diskSizeLocked()
}

// MaxSize returns the capacities of both tiers summed.
func (fc *FusionCache) MaxSize() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.maxMemSizeLocked() + fc.maxDiskSizeLocked()
}

// MemCacheSize returns the used size of the memory tier, 0 if disabled.
func (fc *FusionCache) MemCacheSize() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.memSizeLocked()
}

// MaxMemCacheSize returns the memory tier capacity, 0 if disabled.
func (fc *FusionCache) MaxMemCacheSize() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.maxMemSizeLocked()
}

// DiskCacheSize returns the used size of the disk tier, 0 if disabled.
func (fc *FusionCache) DiskCacheSize() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.diskSizeLocked()
}

// MaxDiskCacheSize returns the disk tier capacity, 0 if disabled.
func (fc *FusionCache) MaxDiskCacheSize() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.maxDiskSizeLocked()
}

func (fc *FusionCache) memSizeLocked() int64 {
	if fc.mem == nil {
		return 0
	}
	return fc.mem.Size()
}

func (fc *FusionCache) maxMemSizeLocked() int64 {
	if fc.mem == nil {
		return 0
	}
	return fc.mem.MaxSize()
}

func (fc *FusionCache) diskSizeLocked() int64 {
	if fc.disk == nil {
		return 0
	}
	return fc.disk.Size()
}

func (fc *FusionCache) maxDiskSizeLocked() int64 {
	if fc.disk == nil {
		return 0
	}
	return fc.disk.MaxSize()
}

// SaveMemCacheToDisk writes every entry resident in the memory tier
// onto disk, leaving the memory tier untouched. A no-op unless both
// tiers exist.
func (fc *FusionCache) SaveMemCacheToDisk() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.mem == nil || fc.disk == nil {
		return nil
	}
	for _, ent := range fc.mem.Snapshot() {
		if err := fc.disk.Put(ent.Key, ent.Value); err != nil {
			return err
		}
	}
	return nil
}

// MemCache returns the memory tier handle, or nil when that tier is
// disabled. The handle is not synchronized; see MemCache.
func (fc *FusionCache) MemCache() *MemCache { return fc.mem }

// DiskCache returns the disk tier handle, or nil when that tier is
// disabled. The handle is safe for concurrent use on its own.
func (fc *FusionCache) DiskCache() *DiskCache { return fc.disk }

// Close persists the disk tier index.
func (fc *FusionCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.disk != nil {
		return fc.disk.Close()
	}
	return nil
}
