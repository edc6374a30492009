package duckdb

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Statement is a prepared SQL statement bound to a connection.
type Statement struct {
	stmt   uintptr
	conn   *Connection
	closed int32
}

// Prepare compiles a SQL statement for repeated execution. On failure the
// engine's own diagnostic text is returned unchanged.
func (c *Connection) Prepare(sql string) (*Statement, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, errClosed("connection")
	}

	var stmt uintptr
	if duckdbPrepare(c.conn, sql, &stmt) == duckdbError {
		msg := duckdbPrepareError(stmt)
		duckdbDestroyPrepare(&stmt)
		return nil, NewError(ErrPrepare, msg)
	}

	s := &Statement{stmt: stmt, conn: c}
	runtime.SetFinalizer(s, (*Statement).Destroy)
	return s, nil
}

// ParameterCount returns the number of bind parameters the statement
// declares.
func (s *Statement) ParameterCount() uint64 {
	if atomic.LoadInt32(&s.closed) != 0 {
		return 0
	}
	return duckdbNParams(s.stmt)
}

// Execute binds the given arguments in order and runs the statement. The
// argument count must match the statement's parameter count exactly; the
// mismatch is reported before any binding happens. Supported argument
// types are nil, bool, the signed and unsigned Go integers, float32,
// float64, string and []byte.
func (s *Statement) Execute(args ...any) (*Result, error) {
	if atomic.LoadInt32(&s.closed) != 0 {
		return nil, errClosed("statement")
	}

	want := duckdbNParams(s.stmt)
	if uint64(len(args)) != want {
		return nil, NewError(ErrBadArgument,
			fmt.Sprintf("statement expects %d parameters, got %d", want, len(args)))
	}

	for i, arg := range args {
		if err := s.bind(uint64(i+1), arg); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	if duckdbExecutePrepared(s.stmt, unsafe.Pointer(&res.res)) == duckdbError {
		msg := duckdbResultError(unsafe.Pointer(&res.res))
		duckdbDestroyResult(unsafe.Pointer(&res.res))
		return nil, NewError(ErrExec, msg)
	}

	runtime.SetFinalizer(res, (*Result).Destroy)
	return res, nil
}

// bind classifies one argument and forwards it to the matching engine bind
// call. Parameter indexes are 1-based.
func (s *Statement) bind(idx uint64, arg any) error {
	var state int32
	switch v := arg.(type) {
	case nil:
		state = duckdbBindNull(s.stmt, idx)
	case bool:
		state = duckdbBindBoolean(s.stmt, idx, v)
	case int:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case int8:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case int16:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case int32:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case int64:
		state = duckdbBindInt64(s.stmt, idx, v)
	case uint:
		// Unsigned values bind through the unsigned entry point so the
		// upper half of the range does not flip sign.
		state = duckdbBindUint64(s.stmt, idx, uint64(v))
	case uint8:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case uint16:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case uint32:
		state = duckdbBindInt64(s.stmt, idx, int64(v))
	case uint64:
		state = duckdbBindUint64(s.stmt, idx, v)
	case float32:
		state = duckdbBindDouble(s.stmt, idx, float64(v))
	case float64:
		state = duckdbBindDouble(s.stmt, idx, v)
	case string:
		state = duckdbBindVarchar(s.stmt, idx, v)
	case []byte:
		if len(v) == 0 {
			state = duckdbBindBlob(s.stmt, idx, nil, 0)
		} else {
			state = duckdbBindBlob(s.stmt, idx, unsafe.Pointer(&v[0]), uint64(len(v)))
		}
	default:
		return NewError(ErrBadArgument,
			fmt.Sprintf("unsupported parameter type %T at index %d", arg, idx))
	}

	if state == duckdbError {
		msg := duckdbPrepareError(s.stmt)
		if msg == "" {
			msg = fmt.Sprintf("failed to bind parameter %d", idx)
		}
		return NewError(ErrBind, msg)
	}
	return nil
}

// Destroy releases the prepared statement. Idempotent.
func (s *Statement) Destroy() {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return
	}
	duckdbDestroyPrepare(&s.stmt)
	runtime.SetFinalizer(s, nil)
}

// Close releases the prepared statement. It is an alias for Destroy kept
// for callers expecting the io.Closer shape.
func (s *Statement) Close() error {
	s.Destroy()
	return nil
}
