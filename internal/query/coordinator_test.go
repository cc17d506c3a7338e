package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agequery/agerepl/internal/cypher"
)

type invocation struct {
	graph     string
	statement string
	schema    cypher.ColumnSpec
}

// mockBridge records invocations and transaction finalizations and answers
// each Invoke through the respond callback.
type mockBridge struct {
	invocations []invocation
	commits     int
	rollbacks   int
	open        bool
	respond     func(statement string, schema cypher.ColumnSpec) ([]Row, error)
}

func (m *mockBridge) Invoke(_ context.Context, graph, statement string, schema cypher.ColumnSpec) ([]Row, error) {
	m.invocations = append(m.invocations, invocation{graph: graph, statement: statement, schema: schema})
	m.open = true
	if m.respond == nil {
		return nil, nil
	}
	return m.respond(statement, schema)
}

func (m *mockBridge) Commit() error {
	if m.open {
		m.commits++
		m.open = false
	}
	return nil
}

func (m *mockBridge) Rollback() error {
	if m.open {
		m.rollbacks++
		m.open = false
	}
	return nil
}

func defaultSchema() cypher.ColumnSpec {
	return cypher.DefaultSchema("result")
}

func newTestCoordinator(bridge Bridge) *Coordinator {
	return NewCoordinator(bridge, "demo", defaultSchema(), zap.NewNop().Sugar())
}

func rowOf(cols []string, vals ...interface{}) Row {
	values := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		values[c] = vals[i]
	}
	return Row{Columns: cols, Values: values}
}

func TestExecuteStatement_Success(t *testing.T) {
	want := []Row{rowOf([]string{"result"}, "{\"id\": 1}")}
	bridge := &mockBridge{respond: func(string, cypher.ColumnSpec) ([]Row, error) {
		return want, nil
	}}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteStatement(context.Background(), "MATCH (n) RETURN n;")

	require.False(t, out.Failed())
	assert.Equal(t, want, out.Rows)
	require.Len(t, bridge.invocations, 1)
	assert.Equal(t, "demo", bridge.invocations[0].graph)
	assert.Equal(t, "MATCH (n) RETURN n", bridge.invocations[0].statement)
	assert.True(t, bridge.invocations[0].schema.Equal(defaultSchema()))
	assert.Equal(t, 1, bridge.commits)
	assert.Equal(t, 0, bridge.rollbacks)
}

func TestExecuteStatement_EmptyInput_NoBridgeCall(t *testing.T) {
	bridge := &mockBridge{}
	coord := newTestCoordinator(bridge)

	for _, text := range []string{"", "   ", "\t\n", ";", " ;; "} {
		out := coord.ExecuteStatement(context.Background(), text)
		require.False(t, out.Failed(), "input %q", text)
		assert.Empty(t, out.Rows, "input %q", text)
	}
	assert.Empty(t, bridge.invocations)
	assert.Zero(t, bridge.commits)
	assert.Zero(t, bridge.rollbacks)
}

func TestExecuteStatement_RetryWithDefaultSchema(t *testing.T) {
	want := []Row{rowOf([]string{"result"}, "ok")}
	bridge := &mockBridge{respond: func(_ string, schema cypher.ColumnSpec) ([]Row, error) {
		if !schema.Equal(defaultSchema()) {
			return nil, errors.New("return row and column definition list do not match")
		}
		return want, nil
	}}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteStatement(context.Background(), "MATCH (n) RETURN n AS node, n.name AS name")

	require.False(t, out.Failed())
	assert.Equal(t, want, out.Rows)
	require.Len(t, bridge.invocations, 2)
	assert.Equal(t, []string{"node", "name"}, bridge.invocations[0].schema.Names())
	assert.True(t, bridge.invocations[1].schema.Equal(defaultSchema()))
	assert.Equal(t, 1, bridge.rollbacks, "failed attempt rolls back")
	assert.Equal(t, 1, bridge.commits, "retry commits")
}

func TestExecuteStatement_NoRetryOnDefaultSchema(t *testing.T) {
	bridge := &mockBridge{respond: func(string, cypher.ColumnSpec) ([]Row, error) {
		return nil, errors.New("syntax error at or near \"MACH\"\nLINE 1: ...")
	}}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteStatement(context.Background(), "MACH (n) RETURN n")

	require.True(t, out.Failed())
	assert.Equal(t, "Cypher error: syntax error at or near \"MACH\"", out.Err)
	assert.Len(t, bridge.invocations, 1, "default schema is never retried")
	assert.Equal(t, 0, bridge.commits)
	assert.Equal(t, 1, bridge.rollbacks)
}

func TestExecuteStatement_RetryFailsToo(t *testing.T) {
	bridge := &mockBridge{respond: func(string, cypher.ColumnSpec) ([]Row, error) {
		return nil, errors.New("relation does not exist\nsecond line")
	}}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteStatement(context.Background(), "MATCH (n) RETURN n.a, n.b")

	require.True(t, out.Failed())
	assert.Equal(t, "Cypher error: relation does not exist", out.Err)
	assert.Len(t, bridge.invocations, 2, "exactly one retry")
	assert.Equal(t, 0, bridge.commits)
	assert.Equal(t, 2, bridge.rollbacks)
}

func TestExecuteStatement_SanitizesWrappedInput(t *testing.T) {
	bridge := &mockBridge{}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteStatement(context.Background(),
		"SELECT * FROM cypher('g', $$ MATCH (n) RETURN n $$) AS (n agtype);")

	require.False(t, out.Failed())
	require.Len(t, bridge.invocations, 1)
	assert.Equal(t, "MATCH (n) RETURN n", bridge.invocations[0].statement)
}

func TestExecuteBatch_Empty(t *testing.T) {
	bridge := &mockBridge{}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteBatch(context.Background(), " ;; \n ; ")

	require.False(t, out.Failed())
	assert.Empty(t, out.Rows)
	assert.Empty(t, bridge.invocations)
}

func TestExecuteBatch_FailFast(t *testing.T) {
	bridge := &mockBridge{respond: func(statement string, _ cypher.ColumnSpec) ([]Row, error) {
		if statement == "B" {
			return nil, errors.New("boom")
		}
		return []Row{rowOf([]string{"result"}, statement)}, nil
	}}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteBatch(context.Background(), "A; B; C")

	require.True(t, out.Failed())
	assert.Equal(t, "Cypher error: boom", out.Err)
	require.Len(t, bridge.invocations, 2, "C must never be invoked")
	assert.Equal(t, "A", bridge.invocations[0].statement)
	assert.Equal(t, "B", bridge.invocations[1].statement)
	assert.Equal(t, 1, bridge.commits, "A stays committed")
	assert.Equal(t, 1, bridge.rollbacks)
}

func TestExecuteBatch_AccumulatesRowsInOrder(t *testing.T) {
	bridge := &mockBridge{respond: func(statement string, _ cypher.ColumnSpec) ([]Row, error) {
		return []Row{rowOf([]string{"result"}, statement)}, nil
	}}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteBatch(context.Background(), "A; B; C;")

	require.False(t, out.Failed())
	require.Len(t, out.Rows, 3)
	assert.Equal(t, "A", out.Rows[0].Values["result"])
	assert.Equal(t, "B", out.Rows[1].Values["result"])
	assert.Equal(t, "C", out.Rows[2].Values["result"])
	assert.Equal(t, 3, bridge.commits)
}

func TestExecuteBatch_SingleStatementDelegates(t *testing.T) {
	bridge := &mockBridge{}
	coord := newTestCoordinator(bridge)

	out := coord.ExecuteBatch(context.Background(), "MATCH (n) RETURN n;")

	require.False(t, out.Failed())
	require.Len(t, bridge.invocations, 1)
	assert.Equal(t, "MATCH (n) RETURN n", bridge.invocations[0].statement)
}
