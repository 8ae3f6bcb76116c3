package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/chanfle/fpdf/pkg/analysis"
)

// ProcessingError represents a non-retryable PDF processing error
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// Analyzer produces analysis results from source documents. The cache core
// only depends on this contract; PDFAnalyzer is the built-in producer.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*analysis.Result, error)
}

// PDFAnalyzer analyzes PDF files with the pure-Go pdf reader. Ultra mode
// additionally records per-object structure for object-level queries.
type PDFAnalyzer struct {
	Mode     analysis.ExtractionMode
	MaxPages int // 0 means unlimited
}

// Analyze parses the PDF at path into an analysis result
func (a *PDFAnalyzer) Analyze(ctx context.Context, path string) (*analysis.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return nil, &ProcessingError{
			Message: fmt.Sprintf("%s is not a valid PDF file", path),
		}
	}

	reader := bytes.NewReader(content)
	doc, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return nil, &ProcessingError{
			Message: fmt.Sprintf("failed to parse PDF %s: %v", path, err),
		}
	}

	mode := a.Mode
	if mode == "" {
		mode = analysis.ModeStandard
	}

	result := &analysis.Result{
		SourceFile: path,
		Mode:       mode,
		Info:       a.extractInfo(doc),
		Bookmarks:  convertOutline(doc.Outline().Child),
	}

	fonts := make(map[string]bool)
	for i := 1; i <= doc.NumPage(); i++ {
		if a.MaxPages > 0 && i > a.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, font := range page.Fonts() {
			fonts[font] = true
		}

		rec := a.extractPage(page, i)
		result.Pages = append(result.Pages, rec)

		if mode == analysis.ModeUltra {
			result.Objects = append(result.Objects, a.extractObject(page, i, rec))
		}
	}
	result.Info.FontCount = len(fonts)

	log.Debug().
		Str("file", path).
		Int("pages", len(result.Pages)).
		Int("objects", len(result.Objects)).
		Str("mode", string(mode)).
		Msg("PDF analysis completed")

	return result, nil
}

func (a *PDFAnalyzer) extractPage(page pdf.Page, number int) analysis.Page {
	rec := analysis.Page{Number: number}

	text, err := page.GetPlainText(nil)
	if err == nil {
		rec.Text = strings.TrimSpace(text)
	}
	if rec.Text != "" {
		rec.Extractions = append(rec.Extractions, analysis.Extraction{
			Method: "plain",
			Text:   rec.Text,
		})
	}

	lines := strings.Split(rec.Text, "\n")
	if len(lines) > 1 {
		rec.Header = strings.TrimSpace(lines[0])
		rec.Footer = strings.TrimSpace(lines[len(lines)-1])
	}

	width, height := pageDimensions(page)
	rec.Width = width
	rec.Height = height

	content := page.Content()
	if len(content.Text) > 0 {
		var words strings.Builder
		for _, t := range content.Text {
			box := analysis.WordBox{Text: t.S, X0: t.X, Y0: t.Y, X1: t.X + t.W, Y1: t.Y + t.FontSize}
			if width > 0 && height > 0 {
				box.X0 /= width
				box.X1 /= width
				box.Y0 /= height
				box.Y1 /= height
			}
			rec.Words = append(rec.Words, box)
			words.WriteString(t.S)
			words.WriteByte(' ')
		}
		if joined := strings.TrimSpace(words.String()); joined != "" && joined != rec.Text {
			rec.Extractions = append(rec.Extractions, analysis.Extraction{
				Method: "raw",
				Text:   joined,
			})
		}
	}

	return rec
}

// extractObject records the page's underlying dictionary as a low-level
// object record, carrying the page itself for page-affinity queries.
func (a *PDFAnalyzer) extractObject(page pdf.Page, number int, rec analysis.Page) analysis.Object {
	obj := analysis.Object{
		Number: number,
		Type:   "Page",
		Pages:  []analysis.Page{rec},
	}
	obj.DictionaryKeys = page.V.Keys()
	obj.StreamLength = streamLength(page.V.Key("Contents"))
	for _, key := range obj.DictionaryKeys {
		switch page.V.Key(key).Kind() {
		case pdf.Dict, pdf.Array, pdf.Stream:
			obj.IndirectRefs++
		}
	}
	return obj
}

func (a *PDFAnalyzer) extractInfo(doc *pdf.Reader) analysis.DocumentInfo {
	info := analysis.DocumentInfo{}
	trailer := doc.Trailer()
	if trailer.IsNull() {
		return info
	}

	if meta := trailer.Key("Info"); !meta.IsNull() {
		info.Title = meta.Key("Title").RawString()
		info.Author = meta.Key("Author").RawString()
		info.Subject = meta.Key("Subject").RawString()
		info.Keywords = meta.Key("Keywords").RawString()
		info.CreationDate = meta.Key("CreationDate").RawString()
	}
	info.Encrypted = !trailer.Key("Encrypt").IsNull()

	if root := trailer.Key("Root"); !root.IsNull() {
		info.HasForms = !root.Key("AcroForm").IsNull()
		if names := root.Key("Names"); !names.IsNull() {
			info.HasEmbedded = !names.Key("EmbeddedFiles").IsNull()
			info.HasJavaScript = !names.Key("JavaScript").IsNull()
		}
	}

	return info
}

func pageDimensions(page pdf.Page) (float64, float64) {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return 0, 0
	}
	width := box.Index(2).Float64() - box.Index(0).Float64()
	height := box.Index(3).Float64() - box.Index(1).Float64()
	return width, height
}

func streamLength(contents pdf.Value) int64 {
	switch contents.Kind() {
	case pdf.Stream, pdf.Dict:
		return contents.Key("Length").Int64()
	case pdf.Array:
		var total int64
		for i := 0; i < contents.Len(); i++ {
			total += contents.Index(i).Key("Length").Int64()
		}
		return total
	}
	return 0
}

func convertOutline(children []pdf.Outline) []analysis.Bookmark {
	if len(children) == 0 {
		return nil
	}
	bookmarks := make([]analysis.Bookmark, 0, len(children))
	for _, child := range children {
		bookmarks = append(bookmarks, analysis.Bookmark{
			Title:    child.Title,
			Children: convertOutline(child.Child),
		})
	}
	return bookmarks
}
