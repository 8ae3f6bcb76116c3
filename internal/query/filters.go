package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter names accepted by the engine. Document-level filters gate the
// whole query; the rest are evaluated per element.
const (
	FilterMinPages  = "min-pages"
	FilterMaxPages  = "max-pages"
	FilterBookmarks = "bookmarks"
	FilterForms     = "forms"
	FilterEncrypted = "encrypted"

	FilterType      = "type"
	FilterKey       = "key"
	FilterSize      = "size"
	FilterMinSize   = "min-size"
	FilterMaxSize   = "max-size"
	FilterStream    = "stream"
	FilterRefs      = "refs"
	FilterWord      = "word"
	FilterSignature = "signature"
)

var documentLevel = map[string]bool{
	FilterMinPages:  true,
	FilterMaxPages:  true,
	FilterBookmarks: true,
	FilterForms:     true,
	FilterEncrypted: true,
}

var elementLevel = map[string]bool{
	FilterType:      true,
	FilterKey:       true,
	FilterSize:      true,
	FilterMinSize:   true,
	FilterMaxSize:   true,
	FilterStream:    true,
	FilterRefs:      true,
	FilterWord:      true,
	FilterSignature: true,
}

// Filter is one named predicate with its raw string argument
type Filter struct {
	Name  string
	Value string
}

// FilterSpec is an ordered set of filters. Insertion order is preserved for
// reason output, but predicates are conjunctive so evaluation order never
// changes the result set.
type FilterSpec struct {
	filters []Filter
}

// NewFilterSpec creates an empty filter spec
func NewFilterSpec() *FilterSpec {
	return &FilterSpec{}
}

// Add appends a named filter, returning the spec for chaining
func (s *FilterSpec) Add(name, value string) *FilterSpec {
	s.filters = append(s.filters, Filter{Name: name, Value: value})
	return s
}

// Filters returns the filters in insertion order
func (s *FilterSpec) Filters() []Filter {
	return s.filters
}

// Len returns the number of supplied filters
func (s *FilterSpec) Len() int {
	return len(s.filters)
}

// MalformedFilterError reports a filter argument that failed to parse.
// The engine fails fast on these instead of silently skipping the filter.
type MalformedFilterError struct {
	Filter string
	Value  string
	Want   string
}

func (e *MalformedFilterError) Error() string {
	return fmt.Sprintf("filter %q: value %q is not a valid %s", e.Filter, e.Value, e.Want)
}

func parseIntArg(name, value string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, &MalformedFilterError{Filter: name, Value: value, Want: "number"}
	}
	return n, nil
}

func parseBoolArg(name, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(value)))
	if err != nil {
		return false, &MalformedFilterError{Filter: name, Value: value, Want: "boolean"}
	}
	return b, nil
}

// wildcardMatch implements the filter wildcard rules: a single trailing `*`
// means prefix match; any other `*` placement means substring match after
// stripping the stars. Values without `*` compare exactly. All comparisons
// are case-insensitive.
func wildcardMatch(pattern, value string) bool {
	p := strings.ToLower(pattern)
	v := strings.ToLower(value)
	if !strings.Contains(p, "*") {
		return p == v
	}
	if strings.Count(p, "*") == 1 && strings.HasSuffix(p, "*") {
		return strings.HasPrefix(v, strings.TrimSuffix(p, "*"))
	}
	return strings.Contains(v, strings.ReplaceAll(p, "*", ""))
}

// Composition operators for multi-term text values
const (
	opSingle = ""
	opAll    = "AND"
	opAny    = "OR"
)

// textQuery is a parsed full-text filter value. `|` composes terms with OR,
// `&` with AND; a value containing both is treated as OR-only.
type textQuery struct {
	terms []string
	op    string
}

func parseTextQuery(value string) textQuery {
	switch {
	case strings.Contains(value, "|"):
		return textQuery{terms: splitTerms(value, "|"), op: opAny}
	case strings.Contains(value, "&"):
		return textQuery{terms: splitTerms(value, "&"), op: opAll}
	default:
		return textQuery{terms: []string{strings.TrimSpace(value)}, op: opSingle}
	}
}

func splitTerms(value, sep string) []string {
	parts := strings.Split(value, sep)
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// matches evaluates the query against the element's text variants using a
// per-term predicate. A term counts as present when the predicate holds for
// any variant.
func (q textQuery) matches(texts []string, hit func(text, term string) bool) bool {
	if len(q.terms) == 0 {
		return false
	}
	present := func(term string) bool {
		for _, text := range texts {
			if hit(text, term) {
				return true
			}
		}
		return false
	}
	if q.op == opAny {
		for _, term := range q.terms {
			if present(term) {
				return true
			}
		}
		return false
	}
	for _, term := range q.terms {
		if !present(term) {
			return false
		}
	}
	return true
}

// reason describes the successful match for the reason list
func (q textQuery) reason(filterName string) string {
	if q.op == opSingle {
		return fmt.Sprintf("%s: matched term %q", filterName, q.terms[0])
	}
	return fmt.Sprintf("%s: %s match on terms [%s]", filterName, q.op, strings.Join(q.terms, ", "))
}

func containsFold(text, term string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}
