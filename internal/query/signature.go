package query

import (
	"fmt"
	"strings"
)

// The signature block conventionally sits in the final 30% of a page's
// text, measured by character offset.
const signatureRegionStart = 0.70

// Generic tokens that corroborate a bare name hit outside the signature
// region. The Portuguese variants come from the despacho corpus the tool
// was built for.
var signatureIndicators = []string{
	"____",
	"signature",
	"digital signature",
	"digitally signed",
	"assinatura",
	"assinado digitalmente",
	"assinado eletronicamente",
}

// signatureRegion returns the final portion of the text where signature
// blocks conventionally appear
func signatureRegion(text string) string {
	runes := []rune(text)
	start := int(float64(len(runes)) * signatureRegionStart)
	return string(runes[start:])
}

// signatureTemplates are the explicit phrasings accepted anywhere in the
// signature region, in addition to the bare term itself.
func signatureTemplates(term string) []string {
	return []string{
		term,
		"signed by " + term,
		term + " (signed)",
		"signed: " + term,
		"assinado por " + term,
	}
}

// signatureHit reports whether one text variant satisfies the signature
// heuristic for a single term. Two paths:
//
//  1. the term (or an explicit signed-by phrasing) appears inside the
//     signature region;
//  2. the term appears anywhere on the page and a generic signature
//     indicator also appears on the page.
//
// The second path lets a bare name match only when corroborated by a
// nearby signature cue, while explicit phrasing always matches.
func signatureHit(text, term string) bool {
	lower := strings.ToLower(text)
	t := strings.ToLower(term)

	region := signatureRegion(lower)
	for _, phrase := range signatureTemplates(t) {
		if strings.Contains(region, phrase) {
			return true
		}
	}

	if strings.Contains(lower, t) {
		for _, indicator := range signatureIndicators {
			if strings.Contains(lower, indicator) {
				return true
			}
		}
	}

	return false
}

// signatureReason describes a successful signature match
func signatureReason(q textQuery) string {
	if q.op == opSingle {
		return fmt.Sprintf("%s: signature heuristic matched term %q", FilterSignature, q.terms[0])
	}
	return fmt.Sprintf("%s: signature heuristic %s match on terms [%s]",
		FilterSignature, q.op, strings.Join(q.terms, ", "))
}
