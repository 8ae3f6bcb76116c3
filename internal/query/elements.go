package query

import (
	"fmt"

	"github.com/chanfle/fpdf/pkg/analysis"
)

// objectElement adapts a low-level object record (ultra mode)
type objectElement struct {
	obj *analysis.Object
}

func (e *objectElement) summary() string {
	return fmt.Sprintf("object %d gen %d type %s", e.obj.Number, e.obj.Generation, e.obj.Type)
}

func (e *objectElement) label() string {
	return e.obj.Type
}

func (e *objectElement) size() int64 {
	return e.obj.StreamLength
}

func (e *objectElement) boolAttr(name string) (bool, bool) {
	switch name {
	case FilterStream:
		return e.obj.HasStream(), true
	case FilterRefs:
		return e.obj.IndirectRefs > 0, true
	}
	return false, false
}

func (e *objectElement) hasKey(name string) bool {
	return e.obj.HasKey(name)
}

func (e *objectElement) searchTexts() []string {
	var texts []string
	for i := range e.obj.Pages {
		texts = append(texts, e.obj.Pages[i].SearchTexts()...)
	}
	return texts
}

func (e *objectElement) facts() []string {
	var facts []string
	if e.obj.HasStream() {
		facts = append(facts, fmt.Sprintf("stream size: %d bytes", e.obj.StreamLength))
	}
	if len(e.obj.DictionaryKeys) > 0 {
		facts = append(facts, fmt.Sprintf("dictionary keys: %d", len(e.obj.DictionaryKeys)))
	}
	if e.obj.IndirectRefs > 0 {
		facts = append(facts, fmt.Sprintf("indirect references: %d", e.obj.IndirectRefs))
	}
	return facts
}

func (e *objectElement) toMatch() Match {
	return Match{
		Kind:         "object",
		ObjectNumber: e.obj.Number,
		Generation:   e.obj.Generation,
	}
}

// pageElement adapts a page record. Exact and wildcard matching targets the
// page header line; the comparable numeric attribute is the character count.
type pageElement struct {
	page *analysis.Page
}

func (e *pageElement) summary() string {
	return fmt.Sprintf("page %d (%d chars)", e.page.Number, e.page.CharCount())
}

func (e *pageElement) label() string {
	return e.page.Header
}

func (e *pageElement) size() int64 {
	return int64(e.page.CharCount())
}

func (e *pageElement) boolAttr(string) (bool, bool) {
	// pages declare no boolean attributes
	return false, false
}

func (e *pageElement) hasKey(string) bool {
	return false
}

func (e *pageElement) searchTexts() []string {
	return e.page.SearchTexts()
}

func (e *pageElement) facts() []string {
	facts := []string{fmt.Sprintf("characters: %d", e.page.CharCount())}
	if len(e.page.Words) > 0 {
		facts = append(facts, fmt.Sprintf("words with boxes: %d", len(e.page.Words)))
	}
	return facts
}

func (e *pageElement) toMatch() Match {
	return Match{
		Kind:       "page",
		PageNumber: e.page.Number,
	}
}
