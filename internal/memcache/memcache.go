package memcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chanfle/fpdf/pkg/analysis"
	"github.com/chanfle/fpdf/pkg/logging"
)

// CorruptArtifactError reports a blob that failed to deserialize. The
// faulty entry is never retained, so a later load after the file is
// repaired starts fresh.
type CorruptArtifactError struct {
	Path string
	Err  error
}

func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt analysis blob %s: %v", e.Path, e.Err)
}

func (e *CorruptArtifactError) Unwrap() error {
	return e.Err
}

// Record is one retained analysis keyed by canonical blob path
type Record struct {
	Analysis   *analysis.Result
	LoadedAt   time.Time
	SourcePath string
	SourceSize int64
}

// Cache is a read-through, load-once cache of deserialized analysis
// results. The first caller for a path pays the full deserialization cost;
// concurrent and later callers share the materialized result. Entries live
// until an explicit Clear.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*Record
	group   singleflight.Group
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		records: make(map[string]*Record),
	}
}

// Load returns the deserialized analysis for the blob path, reading and
// decoding it at most once per retained entry. Concurrent first loads for
// the same path collapse into a single read; losers block until the winner
// has materialized the result.
func (c *Cache) Load(blobPath string) (*analysis.Result, error) {
	key, err := filepath.Abs(blobPath)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize blob path %s: %w", blobPath, err)
	}

	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()
	if ok {
		return rec.Analysis, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check: another flight may have populated the entry between
		// the read-lock miss and this call.
		c.mu.RLock()
		rec, ok := c.records[key]
		c.mu.RUnlock()
		if ok {
			return rec.Analysis, nil
		}
		return c.loadAndRetain(key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*analysis.Result), nil
}

func (c *Cache) loadAndRetain(key string) (*analysis.Result, error) {
	start := time.Now()

	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}

	result, err := analysis.Decode(data)
	if err != nil {
		return nil, &CorruptArtifactError{Path: key, Err: err}
	}

	rec := &Record{
		Analysis:   result,
		LoadedAt:   time.Now().UTC(),
		SourcePath: key,
		SourceSize: int64(len(data)),
	}

	c.mu.Lock()
	c.records[key] = rec
	c.mu.Unlock()

	cacheLogger := logging.GetCacheLogger("load")
	cacheLogger.Debug().
		Str("blob", key).
		Int64("size", rec.SourceSize).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis blob materialized")

	return result, nil
}

// Clear drops all retained entries; subsequent loads re-read from disk
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]*Record)
}

// Stats returns the retained entry count and total retained blob bytes
func (c *Cache) Stats() (entries int, retainedBytes int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		retainedBytes += rec.SourceSize
	}
	return len(c.records), retainedBytes
}
