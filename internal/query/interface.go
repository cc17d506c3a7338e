package query

import "context"

// StatementExecutor is the engine's public surface: single-statement and
// batch execution of raw Cypher text.
type StatementExecutor interface {
	ExecuteStatement(ctx context.Context, text string) Outcome
	ExecuteBatch(ctx context.Context, text string) Outcome
}

// Ensure Coordinator implements StatementExecutor
var _ StatementExecutor = (*Coordinator)(nil)
