package analysis

import (
	"encoding/json"
	"fmt"
)

// ExtractionMode selects how much structure the analyzer persisted
type ExtractionMode string

const (
	// ModeStandard keeps pages, text and document info
	ModeStandard ExtractionMode = "standard"
	// ModeUltra additionally keeps low-level object records for object queries
	ModeUltra ExtractionMode = "ultra"
)

// Result is the deserialized analysis payload referenced by a cache entry.
// It is immutable after load and safe to share between concurrent readers.
type Result struct {
	SourceFile string         `json:"source_file,omitempty"`
	Mode       ExtractionMode `json:"extraction_mode"`
	Info       DocumentInfo   `json:"document_info"`
	Pages      []Page         `json:"pages"`
	Objects    []Object       `json:"objects,omitempty"` // ultra mode only
	Bookmarks  []Bookmark     `json:"bookmarks,omitempty"`
}

// DocumentInfo holds document-level metadata and flags
type DocumentInfo struct {
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Keywords       string `json:"keywords,omitempty"`
	CreationDate   string `json:"creation_date,omitempty"`
	Encrypted      bool   `json:"encrypted"`
	HasForms       bool   `json:"has_forms"`
	ImageCount     int    `json:"image_count,omitempty"`
	FontCount      int    `json:"font_count,omitempty"`
	HasAttachments bool   `json:"has_attachments,omitempty"`
	HasEmbedded    bool   `json:"has_embedded_files,omitempty"`
	HasJavaScript  bool   `json:"has_javascript,omitempty"`
	HasMultimedia  bool   `json:"has_multimedia,omitempty"`
}

// WordBox is one extracted word with its normalized bounding box.
// Coordinates are page-relative in [0,1].
type WordBox struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// Extraction is one recorded text extraction variant for a page
type Extraction struct {
	Method string `json:"method"` // plain, layout, raw
	Text   string `json:"text"`
}

// Page is one page of the analyzed document
type Page struct {
	Number      int          `json:"number"` // 1-based
	Width       float64      `json:"width,omitempty"`
	Height      float64      `json:"height,omitempty"`
	Text        string       `json:"text"`
	Header      string       `json:"header,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	Words       []WordBox    `json:"words,omitempty"`
	Extractions []Extraction `json:"text_extractions,omitempty"`
}

// SearchTexts returns every recorded extraction variant for full-text
// filters, always including the primary text.
func (p *Page) SearchTexts() []string {
	texts := make([]string, 0, len(p.Extractions)+1)
	if p.Text != "" {
		texts = append(texts, p.Text)
	}
	for _, e := range p.Extractions {
		if e.Text != "" {
			texts = append(texts, e.Text)
		}
	}
	return texts
}

// CharCount returns the length of the primary extracted text
func (p *Page) CharCount() int {
	return len(p.Text)
}

// Object is one low-level internal object record (ultra mode)
type Object struct {
	Number         int      `json:"number"`
	Generation     int      `json:"generation"`
	Type           string   `json:"type"`
	StreamLength   int64    `json:"stream_length"`
	DictionaryKeys []string `json:"dictionary_keys,omitempty"`
	IndirectRefs   int      `json:"indirect_refs"`
	// Pages carries denormalized page records for page-affinity queries
	Pages []Page `json:"detailed_pages,omitempty"`
}

// HasStream reports whether the object carries a data stream
func (o *Object) HasStream() bool {
	return o.StreamLength > 0
}

// HasKey reports whether the object dictionary declares the named key
func (o *Object) HasKey(name string) bool {
	for _, k := range o.DictionaryKeys {
		if k == name {
			return true
		}
	}
	return false
}

// Bookmark is one node of the document outline
type Bookmark struct {
	Title    string     `json:"title"`
	Page     int        `json:"page,omitempty"`
	Children []Bookmark `json:"children,omitempty"`
}

// PageCount returns the number of analyzed pages
func (r *Result) PageCount() int {
	return len(r.Pages)
}

// HasBookmarks reports whether the document has a non-empty outline
func (r *Result) HasBookmarks() bool {
	return len(r.Bookmarks) > 0
}

// Decode deserializes a blob into a Result. The blob format is
// self-describing JSON so field additions do not break older readers.
func Decode(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("malformed analysis blob: %w", err)
	}
	if r.Mode == "" {
		r.Mode = ModeStandard
	}
	return &r, nil
}

// Encode serializes the Result for durable storage
func (r *Result) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis result: %w", err)
	}
	return data, nil
}
