package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	result, err := Decode([]byte(`{"pages":[{"number":1,"text":"hello"}]}`))
	require.NoError(t, err)

	// Blobs from older producers carry no mode marker
	assert.Equal(t, ModeStandard, result.Mode)
	assert.Equal(t, 1, result.PageCount())
	assert.False(t, result.HasBookmarks())
}

func TestDecodeUltra(t *testing.T) {
	result, err := Decode([]byte(`{
		"extraction_mode": "ultra",
		"document_info": {"title": "Despacho 12", "encrypted": true},
		"pages": [{"number": 1, "text": "corpo do despacho"}],
		"objects": [{"number": 3, "generation": 0, "type": "Page",
			"stream_length": 128, "dictionary_keys": ["Type", "Contents"], "indirect_refs": 2}],
		"bookmarks": [{"title": "Capa", "page": 1}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, ModeUltra, result.Mode)
	assert.Equal(t, "Despacho 12", result.Info.Title)
	assert.True(t, result.Info.Encrypted)
	assert.True(t, result.HasBookmarks())

	require.Len(t, result.Objects, 1)
	obj := result.Objects[0]
	assert.True(t, obj.HasStream())
	assert.True(t, obj.HasKey("Contents"))
	assert.False(t, obj.HasKey("MediaBox"))
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("not json at all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed analysis blob")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := &Result{
		SourceFile: "doc.pdf",
		Mode:       ModeUltra,
		Pages: []Page{{
			Number: 1,
			Text:   "texto principal",
			Words:  []WordBox{{Text: "texto", X0: 0.1, Y0: 0.2, X1: 0.3, Y1: 0.25}},
			Extractions: []Extraction{
				{Method: "raw", Text: "texto principal raw"},
			},
		}},
	}

	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestPageSearchTexts(t *testing.T) {
	page := Page{
		Number: 1,
		Text:   "primary",
		Extractions: []Extraction{
			{Method: "plain", Text: "plain variant"},
			{Method: "raw", Text: ""},
		},
	}
	assert.Equal(t, []string{"primary", "plain variant"}, page.SearchTexts())

	empty := Page{Number: 2}
	assert.Empty(t, empty.SearchTexts())
}

func TestPageCharCount(t *testing.T) {
	page := Page{Text: "abcde"}
	assert.Equal(t, 5, page.CharCount())
}
