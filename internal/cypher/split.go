package cypher

import "strings"

// SplitStatements divides raw input into individual statements on the ";"
// terminator, trimming whitespace and dropping pieces that are empty after
// trimming. Splitting is naive: a ";" inside a string literal or a nested
// structure is treated as a terminator like any other.
func SplitStatements(text string) []string {
	var statements []string
	for _, piece := range strings.Split(text, ";") {
		if stmt := strings.TrimSpace(piece); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// StripTerminator trims surrounding whitespace and removes trailing
// semicolons, which AGE's cypher() function does not accept inside the
// dollar-quoted body.
func StripTerminator(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), ";")
}
