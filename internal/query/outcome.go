package query

// Row is one result row. Columns preserves the order declared to the bridge
// for the invocation that produced the row; Values maps each declared column
// name to its agtype value.
type Row struct {
	Columns []string
	Values  map[string]interface{}
}

// Outcome is the result of an execution operation: a row set on success or
// a single-line error message on failure, never both. Failures never leave
// the engine as Go errors or panics.
type Outcome struct {
	Rows []Row
	Err  string
}

// Success returns a successful outcome carrying rows.
func Success(rows []Row) Outcome {
	return Outcome{Rows: rows}
}

// Failure returns a failed outcome carrying a single-line message.
func Failure(msg string) Outcome {
	return Outcome{Err: msg}
}

// Failed reports whether the outcome carries an error.
func (o Outcome) Failed() bool {
	return o.Err != ""
}
