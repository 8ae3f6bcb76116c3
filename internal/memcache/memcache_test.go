package memcache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chanfle/fpdf/pkg/analysis"
)

func writeTestBlob(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc._cache.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validBlob = `{
	"source_file": "doc.pdf",
	"extraction_mode": "standard",
	"pages": [{"number": 1, "text": "hello world"}]
}`

func TestLoadRetainsSingleInstance(t *testing.T) {
	cache := New()
	path := writeTestBlob(t, validBlob)

	first, err := cache.Load(path)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cache.Load(path)
	require.NoError(t, err)

	// Identical object, not an equal copy
	assert.Same(t, first, second)

	entries, bytes := cache.Stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, int64(len(validBlob)), bytes)
}

func TestLoadConcurrent(t *testing.T) {
	cache := New()
	path := writeTestBlob(t, validBlob)

	const goroutines = 32
	results := make([]*analysis.Result, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := cache.Load(path)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	// All callers observe the same materialized analysis
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}

	entries, _ := cache.Stats()
	assert.Equal(t, 1, entries)
}

func TestLoadMissingFile(t *testing.T) {
	cache := New()

	_, err := cache.Load(filepath.Join(t.TempDir(), "absent._cache.json"))
	require.Error(t, err)

	var corrupt *CorruptArtifactError
	assert.NotErrorAs(t, err, &corrupt)

	entries, _ := cache.Stats()
	assert.Zero(t, entries)
}

func TestLoadCorruptBlobNotRetained(t *testing.T) {
	cache := New()
	path := writeTestBlob(t, "{not json")

	_, err := cache.Load(path)
	require.Error(t, err)

	var corrupt *CorruptArtifactError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Path, "doc._cache.json")

	entries, _ := cache.Stats()
	assert.Zero(t, entries)

	// Repairing the file makes the next load succeed: the failure was
	// never cached.
	require.NoError(t, os.WriteFile(path, []byte(validBlob), 0644))
	result, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Pages[0].Text)
}

func TestLoadDistinctPaths(t *testing.T) {
	cache := New()
	a := writeTestBlob(t, validBlob)
	b := writeTestBlob(t, validBlob)

	ra, err := cache.Load(a)
	require.NoError(t, err)
	rb, err := cache.Load(b)
	require.NoError(t, err)
	assert.NotSame(t, ra, rb)

	entries, _ := cache.Stats()
	assert.Equal(t, 2, entries)
}

func TestClear(t *testing.T) {
	cache := New()
	path := writeTestBlob(t, validBlob)

	first, err := cache.Load(path)
	require.NoError(t, err)

	cache.Clear()
	entries, bytes := cache.Stats()
	assert.Zero(t, entries)
	assert.Zero(t, bytes)

	again, err := cache.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, again)
}
