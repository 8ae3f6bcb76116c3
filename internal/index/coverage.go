package index

import (
	"fmt"

	"github.com/chanfle/fpdf/pkg/analysis"
)

// Coverage field names, matching the original report columns
const (
	FieldTitle        = "title"
	FieldAuthor       = "author"
	FieldSubject      = "subject"
	FieldKeywords     = "keywords"
	FieldCreationDate = "creation_date"
	FieldImages       = "images"
	FieldFonts        = "fonts"
	FieldBookmarks    = "bookmarks"
	FieldAttachments  = "attachments"
	FieldEmbedded     = "embedded_files"
	FieldJavaScript   = "javascript"
	FieldMultimedia   = "multimedia"
	FieldEncrypted    = "encrypted"
)

// RecordCoverage increments the per-field populated counters for one
// analyzed document. The coverage table is created on first use, so cache
// directories written by producers that never call this simply have no
// secondary aggregate.
func (ix *Index) RecordCoverage(info analysis.DocumentInfo, bookmarkCount int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, err := ix.db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata_coverage (
			field TEXT PRIMARY KEY,
			populated INTEGER NOT NULL DEFAULT 0
		)`); err != nil {
		return fmt.Errorf("failed to initialize metadata coverage: %w", err)
	}

	populated := map[string]bool{
		FieldTitle:        info.Title != "",
		FieldAuthor:       info.Author != "",
		FieldSubject:      info.Subject != "",
		FieldKeywords:     info.Keywords != "",
		FieldCreationDate: info.CreationDate != "",
		FieldImages:       info.ImageCount > 0,
		FieldFonts:        info.FontCount > 0,
		FieldBookmarks:    bookmarkCount > 0,
		FieldAttachments:  info.HasAttachments,
		FieldEmbedded:     info.HasEmbedded,
		FieldJavaScript:   info.HasJavaScript,
		FieldMultimedia:   info.HasMultimedia,
		FieldEncrypted:    info.Encrypted,
	}

	for field, hit := range populated {
		if !hit {
			continue
		}
		if _, err := ix.db.Exec(`
			INSERT INTO metadata_coverage (field, populated) VALUES (?, 1)
			ON CONFLICT(field) DO UPDATE SET populated = populated + 1`, field); err != nil {
			return fmt.Errorf("failed to record coverage for %s: %w", field, err)
		}
	}
	return nil
}

func (ix *Index) readCoverage() (map[string]int, error) {
	rows, err := ix.db.Query(`SELECT field, populated FROM metadata_coverage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coverage := make(map[string]int)
	for rows.Next() {
		var field string
		var count int
		if err := rows.Scan(&field, &count); err != nil {
			return nil, err
		}
		coverage[field] = count
	}
	return coverage, rows.Err()
}
