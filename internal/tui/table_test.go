package tui

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/agequery/agerepl/internal/query"
)

func row(cols []string, vals ...interface{}) query.Row {
	values := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		values[c] = vals[i]
	}
	return query.Row{Columns: cols, Values: values}
}

func TestFormat_Empty(t *testing.T) {
	if got := Format(nil); got != NoResults {
		t.Errorf("Format(nil) = %q, want %q", got, NoResults)
	}
	if got := Format([]query.Row{}); got != NoResults {
		t.Errorf("Format(empty) = %q, want %q", got, NoResults)
	}
}

func TestFormat_SingleColumn(t *testing.T) {
	rows := []query.Row{
		row([]string{"result"}, `{"id": 844424930131969, "label": "Person"}`),
		row([]string{"result"}, `{"id": 844424930131970, "label": "Person"}`),
	}

	g := goldie.New(t)
	g.Assert(t, "single_column", []byte(Format(rows)))
}

func TestFormat_MultiColumn(t *testing.T) {
	rows := []query.Row{
		row([]string{"node", "name"}, `{"label": "Person"}`, `"alice"`),
		row([]string{"node", "name"}, `{"label": "Person"}`, `"bob"`),
	}

	g := goldie.New(t)
	g.Assert(t, "multi_column", []byte(Format(rows)))
}

func TestFormat_ColumnOrderPreserved(t *testing.T) {
	rows := []query.Row{row([]string{"z", "a", "m"}, "1", "2", "3")}

	want := "z\ta\tm\n1\t2\t3"
	if got := Format(rows); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
