package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/chanfle/fpdf/pkg/analysis"
)

// ErrBlobMissing reports an index record whose blob file no longer exists
// on disk. It is distinct from an identifier that resolves to nothing.
var ErrBlobMissing = errors.New("blob file missing for cache entry")

const (
	catalogFile = "index.db"
	blobSuffix  = "._cache.json"

	// cached_at column format. The zero-padded fraction keeps the column
	// fixed-width so SQL MAX() compares timestamps correctly as strings.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// Entry is one durable record per analyzed document. Entries are never
// mutated in place; updates are modeled as delete plus insert.
type Entry struct {
	Identifier       string                  `json:"identifier"`
	OriginalFileName string                  `json:"original_file_name"`
	OriginalSize     int64                   `json:"original_size"`
	BlobLocation     string                  `json:"blob_location"`
	BlobSize         int64                   `json:"blob_size"`
	ExtractionMode   analysis.ExtractionMode `json:"extraction_mode"`
	CachedAt         time.Time               `json:"cached_at"`

	rowID int64
}

// Stats aggregates the catalog state
type Stats struct {
	TotalEntries   int            `json:"total_entries"`
	TotalBlobBytes int64          `json:"total_blob_bytes"`
	LastUpdated    time.Time      `json:"last_updated"`
	Coverage       map[string]int `json:"coverage,omitempty"` // per-field populated counts
	Warnings       []string       `json:"warnings,omitempty"`
}

// Index is the durable cache catalog: a SQLite file beside a directory of
// serialized analysis blobs. Every record reconstructs a full Entry on its
// own; blob files stay valid even if their catalog row is deleted out of
// band.
type Index struct {
	db      *sql.DB
	blobDir string

	// single-record write discipline
	mu sync.Mutex
}

// Open opens (or creates) the cache index rooted at dir
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, catalogFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache catalog %s: %w", dbPath, err)
	}

	// The catalog is local and single-writer per record; one connection
	// avoids SQLITE_BUSY churn between concurrent readers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL,
			original_file_name TEXT NOT NULL,
			original_size INTEGER NOT NULL,
			blob_location TEXT NOT NULL,
			blob_size INTEGER NOT NULL,
			extraction_mode TEXT NOT NULL,
			cached_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache catalog %s: %w", dbPath, err)
	}

	return &Index{db: db, blobDir: dir}, nil
}

// Close releases the catalog connection
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Dir returns the cache directory backing this index
func (ix *Index) Dir() string {
	return ix.blobDir
}

// Insert writes the blob and its catalog record. The blob is written to a
// temporary file and renamed so readers never observe a partial blob. Each
// record gets its own blob file: identifiers need not be unique, so the file
// name carries a uuid to keep same-named entries from sharing storage. The
// returned entry carries the final blob location and size.
func (ix *Index) Insert(entry Entry, blob []byte) (Entry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if entry.Identifier == "" {
		return entry, fmt.Errorf("cache entry identifier cannot be empty")
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	blobPath := filepath.Join(ix.blobDir,
		fmt.Sprintf("%s.%s%s", entry.Identifier, uuid.New().String(), blobSuffix))
	tmpPath := blobPath + ".tmp"
	if err := os.WriteFile(tmpPath, blob, 0644); err != nil {
		return entry, fmt.Errorf("failed to write blob %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return entry, fmt.Errorf("failed to finalize blob %s: %w", blobPath, err)
	}

	entry.BlobLocation = blobPath
	entry.BlobSize = int64(len(blob))

	_, err := ix.db.Exec(`
		INSERT INTO entries
			(identifier, original_file_name, original_size, blob_location, blob_size, extraction_mode, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Identifier, entry.OriginalFileName, entry.OriginalSize,
		entry.BlobLocation, entry.BlobSize, string(entry.ExtractionMode),
		entry.CachedAt.Format(timeFormat))
	if err != nil {
		os.Remove(blobPath)
		return entry, fmt.Errorf("failed to insert cache entry %s: %w", entry.Identifier, err)
	}

	log.Debug().
		Str("identifier", entry.Identifier).
		Int64("blob_size", entry.BlobSize).
		Str("mode", string(entry.ExtractionMode)).
		Msg("Cache entry inserted")

	return entry, nil
}

// List returns all entries in stable insertion order
func (ix *Index) List() ([]Entry, error) {
	rows, err := ix.db.Query(`
		SELECT id, identifier, original_file_name, original_size,
		       blob_location, blob_size, extraction_mode, cached_at
		FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var mode, cachedAt string
		if err := rows.Scan(&e.rowID, &e.Identifier, &e.OriginalFileName,
			&e.OriginalSize, &e.BlobLocation, &e.BlobSize, &mode, &cachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		e.ExtractionMode = analysis.ExtractionMode(mode)
		if ts, err := time.Parse(time.RFC3339Nano, cachedAt); err == nil {
			e.CachedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns the primary aggregates and, when available, the per-field
// metadata coverage counts. A missing coverage table degrades to a warning
// rather than failing the call.
func (ix *Index) Stats() (*Stats, error) {
	stats := &Stats{}

	var totalBytes sql.NullInt64
	var lastUpdated sql.NullString
	err := ix.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(blob_size), 0), MAX(cached_at)
		FROM entries`).Scan(&stats.TotalEntries, &totalBytes, &lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	stats.TotalBlobBytes = totalBytes.Int64
	if lastUpdated.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, lastUpdated.String); err == nil {
			stats.LastUpdated = ts
		}
	}

	coverage, err := ix.readCoverage()
	if err != nil {
		warning := fmt.Sprintf("metadata coverage unavailable: %v", err)
		stats.Warnings = append(stats.Warnings, warning)
		log.Warn().Err(err).Msg("Metadata coverage aggregate unavailable")
	} else {
		stats.Coverage = coverage
	}

	return stats, nil
}

// Remove resolves the token and deletes the matching record and its blob.
// It returns false, not an error, when nothing matched.
func (ix *Index) Remove(token string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entry, found, err := ix.Resolve(token)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if _, err := ix.db.Exec(`DELETE FROM entries WHERE id = ?`, entry.rowID); err != nil {
		return false, fmt.Errorf("failed to remove cache entry %s: %w", entry.Identifier, err)
	}
	if err := os.Remove(entry.BlobLocation); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("blob", entry.BlobLocation).Msg("Failed to remove blob file")
	}

	log.Debug().Str("identifier", entry.Identifier).Msg("Cache entry removed")
	return true, nil
}

// Clear deletes all records and their blobs. Clearing an empty index
// succeeds trivially.
func (ix *Index) Clear() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries, err := ix.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.BlobLocation); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("blob", e.BlobLocation).Msg("Failed to remove blob file")
		}
	}
	if _, err := ix.db.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear cache catalog: %w", err)
	}
	return nil
}

// FindBlobPath resolves the token and returns the blob location only if the
// blob still exists on disk. An empty path with a nil error means the token
// resolved to nothing; ErrBlobMissing means the record exists but its blob
// was deleted out of band.
func (ix *Index) FindBlobPath(token string) (string, error) {
	entry, found, err := ix.Resolve(token)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	if _, err := os.Stat(entry.BlobLocation); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s (entry %s)", ErrBlobMissing, entry.BlobLocation, entry.Identifier)
		}
		return "", fmt.Errorf("failed to stat blob %s: %w", entry.BlobLocation, err)
	}
	return entry.BlobLocation, nil
}

// IdentifierFor derives the stable display name for an original file name
func IdentifierFor(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
