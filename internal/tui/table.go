// Package tui renders result rows for the terminal. The format is
// deliberately plain: a tab-separated header of column names followed by
// one tab-separated line per row.
package tui

import (
	"fmt"
	"strings"

	"github.com/agequery/agerepl/internal/query"
)

// NoResults is printed for an empty row set.
const NoResults = "(no results)"

// Format renders rows as a tab-separated table. Column order follows the
// declaration order carried by the first row.
func Format(rows []query.Row) string {
	if len(rows) == 0 {
		return NoResults
	}

	columns := rows[0].Columns
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(columns, "\t"))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = fmt.Sprint(row.Values[col])
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}

	return strings.Join(lines, "\n")
}
