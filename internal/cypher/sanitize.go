package cypher

import (
	"regexp"
	"strings"
)

// Upstream generators (the LLM tool layer in particular) occasionally echo
// the full SQL calling convention instead of pure Cypher. Two shapes show
// up in practice: the complete "SELECT * FROM cypher(...) AS (...)" wrapper
// and a bare cypher(...) call. Both carry the real query inside a
// dollar-quoted body.
var (
	sqlWrapperPattern = regexp.MustCompile(`(?is)SELECT\s+\*\s+FROM\s+cypher\([^$]*\$\$\s*(.+?)\s*\$\$\)\s+AS\s*\([^)]+\);?`)
	cypherFnPattern   = regexp.MustCompile(`(?is)cypher\([^$]*\$\$\s*(.+?)\s*\$\$\)\s*;?`)
)

// Sanitize extracts pure Cypher from text that arrived wrapped in the
// bridge calling convention. The full SQL wrapper is tried first, then a
// bare cypher() call; if neither matches, the input is returned with
// trailing semicolons stripped. Sanitize is idempotent on clean text.
func Sanitize(query string) string {
	s := strings.TrimSpace(query)
	if m := sqlWrapperPattern.FindStringSubmatch(s); m != nil {
		return StripTerminator(m[1])
	}
	if m := cypherFnPattern.FindStringSubmatch(s); m != nil {
		return StripTerminator(m[1])
	}
	return strings.TrimRight(s, ";")
}
