package cypher

import (
	"fmt"
	"regexp"
	"strings"
)

// GraphValueType is the only column type AGE can declare for graph results.
// Every declared column uses it; the bridge cannot express narrower
// relational types for graph values.
const GraphValueType = "agtype"

// Column is one declared result column.
type Column struct {
	Name string
	Type string
}

// ColumnSpec is the ordered, non-empty column definition declared to the
// cypher() bridge ahead of execution.
type ColumnSpec []Column

// DefaultSchema returns the single-column fallback schema. An empty name
// falls back to "result".
func DefaultSchema(name string) ColumnSpec {
	if name == "" {
		name = "result"
	}
	return ColumnSpec{{Name: name, Type: GraphValueType}}
}

// Definition renders the column list as the AS clause of a cypher() call,
// e.g. "(node agtype, name agtype)".
func (s ColumnSpec) Definition() string {
	parts := make([]string, len(s))
	for i, col := range s {
		parts[i] = col.Name + " " + col.Type
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Names returns the declared column names in order.
func (s ColumnSpec) Names() []string {
	names := make([]string, len(s))
	for i, col := range s {
		names[i] = col.Name
	}
	return names
}

// Equal reports whether two specs declare the same columns in the same order.
func (s ColumnSpec) Equal(other ColumnSpec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

var (
	returnClausePattern = regexp.MustCompile(`(?is)\bRETURN\s+(.+?)(?:\s+(?:ORDER|LIMIT|SKIP|UNION)|$)`)
	aliasPattern        = regexp.MustCompile(`(?i)\s+AS\s+(\w+)`)
	identPattern        = regexp.MustCompile(`\w+`)
)

// InferSchema derives the column definition for a statement from its RETURN
// clause. The clause is captured up to the next ORDER/LIMIT/SKIP/UNION
// keyword or end of input and split on commas; the split does not track
// nested parentheses, brackets or quotes.
//
// A statement without a RETURN clause, or one projecting a single item,
// gets def: a lone projected value may be arbitrarily nested and naming it
// risks a type-declaration mismatch, so it is pinned to the safe default.
// With two or more items each column is named by its alias when one is
// present, else by the first identifier-like token, else col<N>.
func InferSchema(statement string, def ColumnSpec) ColumnSpec {
	m := returnClausePattern.FindStringSubmatch(strings.TrimSpace(statement))
	if m == nil {
		return def
	}
	items := strings.Split(strings.TrimSpace(m[1]), ",")
	if len(items) == 1 {
		return def
	}
	spec := make(ColumnSpec, 0, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		var name string
		if am := aliasPattern.FindStringSubmatch(item); am != nil {
			name = am[1]
		} else if tok := identPattern.FindString(item); tok != "" {
			name = tok
		} else {
			name = fmt.Sprintf("col%d", i+1)
		}
		spec = append(spec, Column{Name: name, Type: GraphValueType})
	}
	return spec
}
