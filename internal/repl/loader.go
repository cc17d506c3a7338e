package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/agequery/agerepl/internal/cypher"
	"github.com/agequery/agerepl/internal/query"
	"github.com/agequery/agerepl/internal/tui"
)

// RunFiles loads Cypher statements from each file and executes them through
// the executor, printing per-file and per-statement banners. A missing or
// unreadable file is reported and loading continues with the next one; a
// failing statement does not stop the file (each statement commits on its
// own).
func RunFiles(ctx context.Context, executor query.StatementExecutor, files []string, out io.Writer) {
	for _, path := range files {
		fmt.Fprintf(out, "\n--- Executing file: %s ---\n", path)

		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "Error: File '%s' not found\n", path)
			} else {
				fmt.Fprintf(out, "Error reading file '%s': %v\n", path, err)
			}
			continue
		}

		for i, stmt := range cypher.SplitStatements(string(content)) {
			fmt.Fprintf(out, "\nStatement %d:\n", i+1)
			fmt.Fprintf(out, "cypher> %s\n", stmt)

			outcome := executor.ExecuteStatement(ctx, stmt)
			if outcome.Failed() {
				fmt.Fprintln(out, outcome.Err)
			} else {
				fmt.Fprintln(out, tui.Format(outcome.Rows))
			}
		}
	}
}
