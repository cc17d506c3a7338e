package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Bridge error classification codes.
const (
	CodeSchemaMismatch      = "SCHEMA_MISMATCH"
	CodeInvalidCypher       = "INVALID_CYPHER"
	CodeQueryCanceled       = "QUERY_CANCELED"
	CodeDatabaseUnavailable = "DATABASE_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

// BridgeError is a failure reported by the cypher() bridge, classified from
// the server's SQLSTATE. Message holds the server's one-line message; Detail
// carries the multi-line diagnostics and stays off the first line so callers
// can surface a single line to users.
type BridgeError struct {
	Code    string
	Message string
	Detail  string
}

func (e *BridgeError) Error() string {
	if e.Detail != "" {
		return e.Message + "\n" + e.Detail
	}
	return e.Message
}

// SQLSTATE to bridge error code mapping. AGE reports a disagreement between
// the declared column definition and the actual result shape as a datatype
// or column-definition error.
var sqlStateToCode = map[string]string{
	// Declared column definition rejected against the result shape
	"42804": CodeSchemaMismatch, // datatype_mismatch
	"42P10": CodeSchemaMismatch, // invalid_column_reference

	// Malformed query text
	"42601": CodeInvalidCypher, // syntax_error
	"42703": CodeInvalidCypher, // undefined_column
	"42P01": CodeInvalidCypher, // undefined_table
	"42883": CodeInvalidCypher, // undefined_function

	// Query cancellation
	"57014": CodeQueryCanceled, // query_canceled

	// Resource and connection failures
	"53000": CodeDatabaseUnavailable, // insufficient_resources
	"53300": CodeDatabaseUnavailable, // too_many_connections
	"08000": CodeDatabaseUnavailable, // connection_exception
	"08003": CodeDatabaseUnavailable, // connection_does_not_exist
	"08006": CodeDatabaseUnavailable, // connection_failure
}

// Translate classifies an error from the driver into a BridgeError.
func Translate(err error) *BridgeError {
	if err == nil {
		return nil
	}

	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) {
		return bridgeErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &BridgeError{Code: CodeQueryCanceled, Message: err.Error()}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translatePQError(pqErr)
	}

	return &BridgeError{Code: CodeInternal, Message: err.Error()}
}

func translatePQError(pqErr *pq.Error) *BridgeError {
	code, found := sqlStateToCode[string(pqErr.Code)]
	if !found {
		code = CodeInternal
	}

	var detail []string
	if pqErr.Detail != "" {
		detail = append(detail, "DETAIL: "+pqErr.Detail)
	}
	if pqErr.Hint != "" {
		detail = append(detail, "HINT: "+pqErr.Hint)
	}
	if pqErr.Position != "" {
		detail = append(detail, "POSITION: "+pqErr.Position)
	}

	return &BridgeError{
		Code:    code,
		Message: pqErr.Message,
		Detail:  strings.Join(detail, "\n"),
	}
}

// FirstLine returns the first line of an error's text, for surfacing to
// users without the verbose server diagnostics.
func FirstLine(err error) string {
	if err == nil {
		return ""
	}
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}
