package query

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agequery/agerepl/internal/cypher"
	"github.com/agequery/agerepl/internal/postgres"
)

// Coordinator sequences statements through the bridge: sanitize, infer the
// column schema, invoke, commit or roll back, retry once with the default
// schema when an inferred schema is rejected. A mutex serializes the public
// operations; the underlying session carries transaction state and an
// interleaved commit or rollback from a second caller would corrupt the
// retry protocol of the first.
type Coordinator struct {
	mu            sync.Mutex
	bridge        Bridge
	graphName     string
	defaultSchema cypher.ColumnSpec
	log           *zap.SugaredLogger
}

func NewCoordinator(bridge Bridge, graphName string, defaultSchema cypher.ColumnSpec, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		bridge:        bridge,
		graphName:     graphName,
		defaultSchema: defaultSchema,
		log:           log,
	}
}

// ExecuteStatement runs one statement. A statement that sanitizes to empty
// text succeeds with no rows and no bridge call. Failures carry only the
// first line of the underlying error.
func (c *Coordinator) ExecuteStatement(ctx context.Context, text string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executeStatement(ctx, text)
}

// ExecuteBatch splits raw input into statements and runs them in order.
// The first failure aborts the remainder and becomes the batch's outcome;
// statements already committed stay committed (the batch is not atomic).
func (c *Coordinator) ExecuteBatch(ctx context.Context, text string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	statements := cypher.SplitStatements(text)
	if len(statements) == 0 {
		return Success(nil)
	}
	if len(statements) == 1 {
		return c.executeStatement(ctx, statements[0])
	}

	batchID := uuid.NewString()
	var accumulated []Row
	for i, stmt := range statements {
		c.log.Debugw("batch statement", "batch", batchID, "index", i+1, "total", len(statements))
		outcome := c.executeStatement(ctx, stmt)
		if outcome.Failed() {
			return outcome
		}
		accumulated = append(accumulated, outcome.Rows...)
	}
	return Success(accumulated)
}

func (c *Coordinator) executeStatement(ctx context.Context, text string) Outcome {
	clean := cypher.Sanitize(cypher.StripTerminator(text))
	if clean == "" {
		return Success(nil)
	}

	schema := cypher.InferSchema(clean, c.defaultSchema)
	id := uuid.NewString()

	rows, err := c.attempt(ctx, id, clean, schema)
	if err != nil && !schema.Equal(c.defaultSchema) {
		c.log.Debugw("retrying with default column definition", "id", id, "error", err)
		rows, err = c.attempt(ctx, id, clean, c.defaultSchema)
	}
	if err != nil {
		return Failure("Cypher error: " + postgres.FirstLine(err))
	}
	return Success(rows)
}

// attempt performs one bridge invocation and finishes its transaction:
// commit on success, rollback on any failure. A failed commit counts as a
// failed attempt and participates in the retry protocol.
func (c *Coordinator) attempt(ctx context.Context, id, statement string, schema cypher.ColumnSpec) ([]Row, error) {
	rows, err := c.bridge.Invoke(ctx, c.graphName, statement, schema)
	if err != nil {
		if rbErr := c.bridge.Rollback(); rbErr != nil {
			c.log.Debugw("rollback failed", "id", id, "error", rbErr)
		}
		return nil, err
	}
	if err := c.bridge.Commit(); err != nil {
		if rbErr := c.bridge.Rollback(); rbErr != nil {
			c.log.Debugw("rollback after failed commit failed", "id", id, "error", rbErr)
		}
		return nil, err
	}
	return rows, nil
}
