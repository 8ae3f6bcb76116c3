package presentation

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/chanfle/fpdf/internal/index"
	"github.com/chanfle/fpdf/internal/query"
)

// OutputFormat selects how query results and cache listings are rendered
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatJSON     OutputFormat = "json"
	FormatXML      OutputFormat = "xml"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatRaw      OutputFormat = "raw"
	FormatCount    OutputFormat = "count"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(name)) {
	case FormatText, FormatJSON, FormatXML, FormatCSV, FormatMarkdown, FormatRaw, FormatCount:
		return OutputFormat(strings.ToLower(name)), nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Renderer turns engine output into displayable text. It never re-evaluates
// predicates; everything it needs is already on the Match records.
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

type matchesDocument struct {
	XMLName xml.Name      `xml:"matches" json:"-"`
	Count   int           `xml:"count,attr" json:"count"`
	Matches []query.Match `xml:"match" json:"matches"`
}

// RenderMatches renders the match list in the requested format
func (r *Renderer) RenderMatches(matches []query.Match, format OutputFormat) (string, error) {
	switch format {
	case FormatCount:
		return fmt.Sprintf("%d\n", len(matches)), nil

	case FormatJSON:
		data, err := json.MarshalIndent(matchesDocument{Count: len(matches), Matches: matches}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render matches as JSON: %w", err)
		}
		return string(data) + "\n", nil

	case FormatXML:
		data, err := xml.MarshalIndent(matchesDocument{Count: len(matches), Matches: matches}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render matches as XML: %w", err)
		}
		return xml.Header + string(data) + "\n", nil

	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.Write([]string{"kind", "page", "object", "generation", "summary", "reasons"})
		for _, m := range matches {
			w.Write([]string{
				m.Kind,
				fmt.Sprintf("%d", m.PageNumber),
				fmt.Sprintf("%d", m.ObjectNumber),
				fmt.Sprintf("%d", m.Generation),
				m.Summary,
				strings.Join(m.Reasons, "; "),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("failed to render matches as CSV: %w", err)
		}
		return buf.String(), nil

	case FormatMarkdown:
		var b strings.Builder
		fmt.Fprintf(&b, "## Matches (%d)\n\n", len(matches))
		for _, m := range matches {
			fmt.Fprintf(&b, "- **%s**\n", m.Summary)
			for _, reason := range detailReasons(m) {
				fmt.Fprintf(&b, "  - %s\n", reason)
			}
		}
		return b.String(), nil

	case FormatRaw:
		var b strings.Builder
		for _, m := range matches {
			for _, reason := range m.Reasons {
				b.WriteString(reason)
				b.WriteByte('\n')
			}
		}
		return b.String(), nil

	default: // FormatText
		var b strings.Builder
		fmt.Fprintf(&b, "Matches found: %d\n", len(matches))
		for _, m := range matches {
			fmt.Fprintf(&b, "\n%s\n", m.Summary)
			for _, reason := range detailReasons(m) {
				fmt.Fprintf(&b, "  - %s\n", reason)
			}
		}
		return b.String(), nil
	}
}

type entriesDocument struct {
	XMLName xml.Name      `xml:"cache" json:"-"`
	Count   int           `xml:"count,attr" json:"count"`
	Entries []index.Entry `xml:"entry" json:"entries"`
}

// RenderEntries renders the cache listing. The text format mirrors the
// original table output, with 1-based positions usable as resolver tokens.
func (r *Renderer) RenderEntries(entries []index.Entry, format OutputFormat) (string, error) {
	switch format {
	case FormatCount:
		return fmt.Sprintf("%d\n", len(entries)), nil

	case FormatJSON:
		data, err := json.MarshalIndent(entriesDocument{Count: len(entries), Entries: entries}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render entries as JSON: %w", err)
		}
		return string(data) + "\n", nil

	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.Write([]string{"position", "identifier", "original_file", "original_size", "blob_size", "mode", "cached_at"})
		for i, e := range entries {
			w.Write([]string{
				fmt.Sprintf("%d", i+1),
				e.Identifier,
				e.OriginalFileName,
				fmt.Sprintf("%d", e.OriginalSize),
				fmt.Sprintf("%d", e.BlobSize),
				string(e.ExtractionMode),
				e.CachedAt.Format("2006-01-02 15:04:05"),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("failed to render entries as CSV: %w", err)
		}
		return buf.String(), nil

	default: // FormatText
		var b strings.Builder
		fmt.Fprintf(&b, "Cache entries found: %d\n", len(entries))
		for i, e := range entries {
			fmt.Fprintf(&b, "%3d. %-40s %8s %6s  %s\n",
				i+1, e.Identifier, formatBytes(e.BlobSize),
				string(e.ExtractionMode), e.CachedAt.Format("2006-01-02 15:04"))
		}
		return b.String(), nil
	}
}

// RenderStats renders the aggregate statistics
func (r *Renderer) RenderStats(stats *index.Stats, format OutputFormat) (string, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render stats as JSON: %w", err)
		}
		return string(data) + "\n", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total entries:    %d\n", stats.TotalEntries)
	fmt.Fprintf(&b, "Total blob bytes: %s\n", formatBytes(stats.TotalBlobBytes))
	if !stats.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "Last updated:     %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	if len(stats.Coverage) > 0 {
		b.WriteString("Metadata coverage:\n")
		for _, field := range coverageFieldOrder {
			if count, ok := stats.Coverage[field]; ok {
				fmt.Fprintf(&b, "  %-16s %d\n", field, count)
			}
		}
	}
	for _, warning := range stats.Warnings {
		fmt.Fprintf(&b, "⚠️  %s\n", warning)
	}
	return b.String(), nil
}

// coverageFieldOrder keeps the stats output deterministic
var coverageFieldOrder = []string{
	index.FieldTitle, index.FieldAuthor, index.FieldSubject, index.FieldKeywords,
	index.FieldCreationDate, index.FieldImages, index.FieldFonts, index.FieldBookmarks,
	index.FieldAttachments, index.FieldEmbedded, index.FieldJavaScript,
	index.FieldMultimedia, index.FieldEncrypted,
}

// detailReasons skips the leading summary line, which is already printed
func detailReasons(m query.Match) []string {
	if len(m.Reasons) <= 1 {
		return nil
	}
	return m.Reasons[1:]
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%dB", n)
}
