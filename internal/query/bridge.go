package query

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/agequery/agerepl/internal/cypher"
	"github.com/agequery/agerepl/internal/postgres"
)

// Bridge executes one Cypher statement through AGE's cypher() function.
// Invoke opens a transaction that the caller must finish with exactly one
// Commit or Rollback before the next Invoke; the bridge does not manage
// transactions on its own.
type Bridge interface {
	Invoke(ctx context.Context, graphName, statement string, schema cypher.ColumnSpec) ([]Row, error)
	Commit() error
	Rollback() error
}

// AGEBridge runs cypher() calls on a single pinned session, which carries
// the LOAD 'age' and search_path state the extension requires.
type AGEBridge struct {
	sess *sql.Conn
	tx   *sql.Tx
	log  *zap.SugaredLogger
}

// NewAGEBridge wraps a pinned session prepared by postgres.Connection.
func NewAGEBridge(sess *sql.Conn, log *zap.SugaredLogger) *AGEBridge {
	return &AGEBridge{sess: sess, log: log}
}

// Ensure AGEBridge implements Bridge
var _ Bridge = (*AGEBridge)(nil)

func (b *AGEBridge) Invoke(ctx context.Context, graphName, statement string, schema cypher.ColumnSpec) ([]Row, error) {
	sqlText := fmt.Sprintf("SELECT * FROM cypher('%s', $$ %s $$) AS %s;",
		graphName, statement, schema.Definition())
	b.log.Debugw("db in", "sql", sqlText)

	tx, err := b.sess.BeginTx(ctx, nil)
	if err != nil {
		return nil, postgres.Translate(err)
	}
	b.tx = tx

	rows, err := tx.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, postgres.Translate(err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	b.log.Debugw("db out", "rows", len(result))
	return result, nil
}

func (b *AGEBridge) Commit() error {
	if b.tx == nil {
		return nil
	}
	err := b.tx.Commit()
	b.tx = nil
	if err != nil {
		return postgres.Translate(err)
	}
	return nil
}

func (b *AGEBridge) Rollback() error {
	if b.tx == nil {
		return nil
	}
	err := b.tx.Rollback()
	b.tx = nil
	if err != nil {
		return postgres.Translate(err)
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, postgres.Translate(err)
	}

	var results []Row

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, postgres.Translate(err)
		}

		rowValues := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			val := values[i]

			// agtype arrives as raw bytes
			if b, ok := val.([]byte); ok {
				rowValues[col] = string(b)
			} else {
				rowValues[col] = val
			}
		}

		results = append(results, Row{Columns: columns, Values: rowValues})
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err)
	}

	return results, nil
}
