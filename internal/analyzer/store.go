package analyzer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/chanfle/fpdf/internal/index"
	"github.com/chanfle/fpdf/pkg/analysis"
)

// StoreResult is the producer persistence step: it serializes an analysis
// result, inserts the blob and catalog record, and updates the metadata
// coverage aggregate. Coverage failures downgrade to a warning; the entry
// itself is already durable at that point.
func StoreResult(ix *index.Index, result *analysis.Result, originalPath string) (index.Entry, error) {
	blob, err := result.Encode()
	if err != nil {
		return index.Entry{}, err
	}

	var originalSize int64
	if fi, err := os.Stat(originalPath); err == nil {
		originalSize = fi.Size()
	}

	entry := index.Entry{
		Identifier:       index.IdentifierFor(originalPath),
		OriginalFileName: filepath.Base(originalPath),
		OriginalSize:     originalSize,
		ExtractionMode:   result.Mode,
	}

	entry, err = ix.Insert(entry, blob)
	if err != nil {
		return index.Entry{}, fmt.Errorf("failed to persist analysis for %s: %w", originalPath, err)
	}

	if err := ix.RecordCoverage(result.Info, len(result.Bookmarks)); err != nil {
		log.Warn().Err(err).Str("identifier", entry.Identifier).Msg("Failed to update metadata coverage")
	}

	return entry, nil
}
