package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	maxOpenConnections = 5
	maxIdleConnections = 2
	connMaxLifetime    = 1 * time.Hour
	connMaxIdleTime    = 10 * time.Minute
)

// Connection is a PostgreSQL connection pool plus one pinned session. AGE
// keeps per-session state (LOAD 'age', search_path), so every cypher() call
// must run on the same session the init statements ran on.
type Connection struct {
	db   *sql.DB
	sess *sql.Conn
}

// NewConnection opens a pool to the PostgreSQL database and pins the session
// used for graph execution.
func NewConnection(ctx context.Context, host string, port int, user, password, dbname string) (*Connection, error) {
	connStr := buildConnectionString(host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConnections)
	db.SetMaxIdleConns(maxIdleConnections)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sess, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to pin session: %w", err)
	}

	return &Connection{db: db, sess: sess}, nil
}

// buildConnectionString constructs a PostgreSQL connection string.
func buildConnectionString(host string, port int, user, password, dbname string) string {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)

	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}

	return connStr
}

// Session returns the pinned session used for cypher() execution.
func (c *Connection) Session() *sql.Conn {
	return c.sess
}

// InitAGE runs the graph bootstrap statements on the pinned session.
// Individual failures are logged and skipped: the extension or the graph
// may already exist.
func (c *Connection) InitAGE(ctx context.Context, statements []string, log *zap.SugaredLogger) {
	for _, stmt := range statements {
		if _, err := c.sess.ExecContext(ctx, stmt); err != nil {
			log.Debugw("init statement skipped", "statement", stmt, "error", err)
		}
	}
}

// Ping verifies the connection is still alive.
func (c *Connection) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return c.db.PingContext(ctx)
}

// Close releases the pinned session and the pool.
func (c *Connection) Close() error {
	if c.sess != nil {
		_ = c.sess.Close()
		c.sess = nil
	}
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
