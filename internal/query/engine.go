package query

import (
	"fmt"

	"github.com/chanfle/fpdf/pkg/analysis"
	"github.com/chanfle/fpdf/pkg/logging"
)

// Scope selects which structural elements a query runs against
type Scope string

const (
	ScopePages   Scope = "pages"
	ScopeObjects Scope = "objects"
)

// Match is one structural element that satisfied every supplied filter,
// plus the ordered human-readable reasons it matched. Reasons always start
// with the element's own summary line, followed by structural facts and one
// reason per contributing text or signature filter.
type Match struct {
	Kind         string   `json:"kind"` // page or object
	PageNumber   int      `json:"page_number,omitempty"`
	ObjectNumber int      `json:"object_number,omitempty"`
	Generation   int      `json:"generation,omitempty"`
	Summary      string   `json:"summary"`
	Reasons      []string `json:"reasons"`
}

// element adapts pages and objects to the predicate set
type element interface {
	summary() string
	label() string
	size() int64
	boolAttr(name string) (value, declared bool)
	hasKey(name string) bool
	searchTexts() []string
	facts() []string
	toMatch() Match
}

// Evaluate runs the filter spec against the analysis and returns the
// matching elements. Filters are conjunctive. Document-level filters gate
// the whole query: if any fails, the result is empty and element-level
// filters are never evaluated. Unparsable numeric or boolean filter values
// fail the evaluation immediately.
func Evaluate(result *analysis.Result, scope Scope, spec *FilterSpec) ([]Match, error) {
	logger := logging.GetQueryLogger(string(scope))

	pass, err := documentGatesPass(result, spec)
	if err != nil {
		return nil, err
	}
	if !pass {
		logger.Debug().Msg("Document-level filter gate failed, returning empty result")
		return nil, nil
	}

	preds, err := compileElementFilters(spec)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, el := range elementsFor(result, scope) {
		match, ok, err := applyFilters(el, preds)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, match)
		}
	}

	logger.Debug().
		Int("filters", spec.Len()).
		Int("matches", len(matches)).
		Msg("Filter evaluation completed")

	return matches, nil
}

// documentGatesPass evaluates the document-level filters in the spec
func documentGatesPass(result *analysis.Result, spec *FilterSpec) (bool, error) {
	for _, f := range spec.Filters() {
		if !documentLevel[f.Name] {
			if !elementLevel[f.Name] {
				return false, fmt.Errorf("unknown filter %q", f.Name)
			}
			continue
		}
		switch f.Name {
		case FilterMinPages:
			n, err := parseIntArg(f.Name, f.Value)
			if err != nil {
				return false, err
			}
			if int64(result.PageCount()) < n {
				return false, nil
			}
		case FilterMaxPages:
			n, err := parseIntArg(f.Name, f.Value)
			if err != nil {
				return false, err
			}
			if int64(result.PageCount()) > n {
				return false, nil
			}
		case FilterBookmarks:
			want, err := parseBoolArg(f.Name, f.Value)
			if err != nil {
				return false, err
			}
			if result.HasBookmarks() != want {
				return false, nil
			}
		case FilterForms:
			want, err := parseBoolArg(f.Name, f.Value)
			if err != nil {
				return false, err
			}
			if result.Info.HasForms != want {
				return false, nil
			}
		case FilterEncrypted:
			want, err := parseBoolArg(f.Name, f.Value)
			if err != nil {
				return false, err
			}
			if result.Info.Encrypted != want {
				return false, nil
			}
		}
	}
	return true, nil
}

// predicate evaluates one compiled filter against an element. A non-empty
// reason marks a text or signature filter that contributed to the match.
type predicate struct {
	filter Filter
	eval   func(el element) bool
	reason string
}

// compileElementFilters parses every element-level filter argument up
// front so malformed values fail before any element work.
func compileElementFilters(spec *FilterSpec) ([]predicate, error) {
	var preds []predicate
	for _, f := range spec.Filters() {
		if documentLevel[f.Name] {
			continue
		}
		f := f
		switch f.Name {
		case FilterType:
			preds = append(preds, predicate{filter: f, eval: func(el element) bool {
				return wildcardMatch(f.Value, el.label())
			}})
		case FilterKey:
			preds = append(preds, predicate{filter: f, eval: func(el element) bool {
				return el.hasKey(f.Value)
			}})
		case FilterSize:
			n, err := parseIntArg(f.Name, f.Value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate{filter: f, eval: func(el element) bool {
				return el.size() == n
			}})
		case FilterMinSize:
			n, err := parseIntArg(f.Name, f.Value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate{filter: f, eval: func(el element) bool {
				return el.size() >= n
			}})
		case FilterMaxSize:
			n, err := parseIntArg(f.Name, f.Value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate{filter: f, eval: func(el element) bool {
				return el.size() <= n
			}})
		case FilterStream, FilterRefs:
			want, err := parseBoolArg(f.Name, f.Value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate{filter: f, eval: func(el element) bool {
				value, declared := el.boolAttr(f.Name)
				return declared && value == want
			}})
		case FilterWord:
			q := parseTextQuery(f.Value)
			preds = append(preds, predicate{filter: f, reason: q.reason(FilterWord), eval: func(el element) bool {
				return q.matches(el.searchTexts(), containsFold)
			}})
		case FilterSignature:
			q := parseTextQuery(f.Value)
			preds = append(preds, predicate{filter: f, reason: signatureReason(q), eval: func(el element) bool {
				return q.matches(el.searchTexts(), signatureHit)
			}})
		default:
			return nil, fmt.Errorf("unknown filter %q", f.Name)
		}
	}
	return preds, nil
}

// applyFilters checks every predicate against the element and, on a full
// conjunctive match, assembles the Match with its reason list.
func applyFilters(el element, preds []predicate) (Match, bool, error) {
	var textReasons []string
	for _, p := range preds {
		if !p.eval(el) {
			return Match{}, false, nil
		}
		if p.reason != "" {
			textReasons = append(textReasons, p.reason)
		}
	}

	match := el.toMatch()
	match.Summary = el.summary()
	match.Reasons = append([]string{match.Summary}, el.facts()...)
	match.Reasons = append(match.Reasons, textReasons...)
	return match, true, nil
}

func elementsFor(result *analysis.Result, scope Scope) []element {
	if scope == ScopeObjects {
		els := make([]element, 0, len(result.Objects))
		for i := range result.Objects {
			els = append(els, &objectElement{obj: &result.Objects[i]})
		}
		return els
	}
	els := make([]element, 0, len(result.Pages))
	for i := range result.Pages {
		els = append(els, &pageElement{page: &result.Pages[i]})
	}
	return els
}
