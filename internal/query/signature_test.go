package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chanfle/fpdf/pkg/analysis"
)

// pageWith builds a page whose text places body before the signature
// region and tail inside it.
func pageWith(number int, body, tail string) analysis.Page {
	// Pad the body so the tail lands in the final 30% of the text
	padding := strings.Repeat("relatório técnico. ", 40)
	return analysis.Page{
		Number: number,
		Text:   body + " " + padding + tail,
	}
}

func TestSignatureRegion(t *testing.T) {
	text := strings.Repeat("a", 70) + strings.Repeat("z", 30)
	assert.Equal(t, strings.Repeat("z", 30), signatureRegion(text))
	assert.Empty(t, signatureRegion(""))
}

func TestSignatureHitInRegion(t *testing.T) {
	tests := []struct {
		name string
		tail string
		term string
		want bool
	}{
		{"bare term in region", "Maria Souza", "maria souza", true},
		{"signed by phrasing", "Signed by Maria Souza", "maria souza", true},
		{"parenthetical phrasing", "Maria Souza (signed)", "maria souza", true},
		{"colon phrasing", "Signed: Maria Souza", "maria souza", true},
		{"portuguese phrasing", "Assinado por Maria Souza", "maria souza", true},
		{"different name", "Assinado por João Pereira", "maria souza", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := pageWith(1, "Despacho sobre o processo.", tt.tail)
			assert.Equal(t, tt.want, signatureHit(page.Text, tt.term))
		})
	}
}

func TestSignatureHitOutsideRegionNeedsIndicator(t *testing.T) {
	// Name early in the page, nothing signature-like anywhere: no hit
	page := pageWith(1, "Encaminhado a Maria Souza para ciência.", "Arquive-se.")
	assert.False(t, signatureHit(page.Text, "maria souza"))

	// Same early name plus an indicator token anywhere corroborates it
	tests := []string{
		"____",
		"Signature",
		"digital signature",
		"Digitally Signed",
		"Assinatura",
		"assinado digitalmente",
		"assinado eletronicamente",
	}
	for _, indicator := range tests {
		t.Run(indicator, func(t *testing.T) {
			page := pageWith(1, "Encaminhado a Maria Souza para ciência. "+indicator, "Arquive-se.")
			assert.True(t, signatureHit(page.Text, "maria souza"))
		})
	}
}

func TestSignatureFilterComposition(t *testing.T) {
	result := &analysis.Result{
		Mode: analysis.ModeStandard,
		Pages: []analysis.Page{
			pageWith(1, "Despacho inicial.", "Assinado por Maria Souza"),
			pageWith(2, "Parecer técnico.", "Signed by Carlos Lima"),
			pageWith(3, "Anexo sem assinaturas relevantes.", "Fim do documento."),
		},
	}

	matches, err := Evaluate(result, ScopePages, NewFilterSpec().Add(FilterSignature, "maria souza"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].PageNumber)

	// OR: either signer
	matches, err = Evaluate(result, ScopePages, NewFilterSpec().
		Add(FilterSignature, "maria souza|carlos lima"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].PageNumber)
	assert.Equal(t, 2, matches[1].PageNumber)

	// AND: both signers on the same page
	matches, err = Evaluate(result, ScopePages, NewFilterSpec().
		Add(FilterSignature, "maria souza & carlos lima"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Reason names the heuristic and the terms
	matches, err = Evaluate(result, ScopePages, NewFilterSpec().Add(FilterSignature, "carlos lima"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	last := matches[0].Reasons[len(matches[0].Reasons)-1]
	assert.Contains(t, last, "signature heuristic")
	assert.Contains(t, last, "carlos lima")
}

func TestWildcardMatch(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"Font", "Font", true},
		{"font", "FONT", true},
		{"Font", "FontDescriptor", false},
		{"Font*", "FontDescriptor", true},
		{"Font*", "TrueTypeFont", false},
		{"*Font", "TrueTypeFont", true},
		{"*ont*", "FontDescriptor", true},
		{"*", "anything", true},
		{"", "", true},
		{"", "x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wildcardMatch(tt.pattern, tt.value),
			"pattern %q against %q", tt.pattern, tt.value)
	}
}

func TestParseTextQuery(t *testing.T) {
	q := parseTextQuery("single term")
	assert.Equal(t, []string{"single term"}, q.terms)
	assert.Equal(t, opSingle, q.op)

	q = parseTextQuery("a & b & c")
	assert.Equal(t, []string{"a", "b", "c"}, q.terms)
	assert.Equal(t, opAll, q.op)

	q = parseTextQuery("a | b")
	assert.Equal(t, []string{"a", "b"}, q.terms)
	assert.Equal(t, opAny, q.op)

	// Mixed separators: `|` wins, `&` stays literal inside the terms
	q = parseTextQuery("a & b | c")
	assert.Equal(t, []string{"a & b", "c"}, q.terms)
	assert.Equal(t, opAny, q.op)
}
