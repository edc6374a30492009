package duckdb

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Connection represents a single connection to an open database. A
// connection is used by one caller at a time; it is not safe for concurrent
// use without external synchronization.
type Connection struct {
	conn   uintptr
	db     *Database
	owndb  bool
	closed int32
	mu     sync.Mutex
}

// NewConnection opens a database at path and connects to it in one step.
// The database is owned by the connection and closed together with it. An
// empty path opens an in-memory database.
func NewConnection(path string) (*Connection, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}

	conn, err := db.Connect()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	conn.owndb = true
	return conn, nil
}

// Close closes the connection. If the connection owns its database, the
// database is closed as well. Closing is idempotent.
func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != 0 {
		duckdbDisconnect(&c.conn)
		c.conn = 0
	}

	runtime.SetFinalizer(c, nil)

	if c.owndb && c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Query executes a SQL statement and returns its materialized result. On
// failure the engine's own diagnostic text is returned unchanged.
func (c *Connection) Query(sql string) (*Result, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, errClosed("connection")
	}

	res := &Result{}
	if duckdbQuery(c.conn, sql, unsafe.Pointer(&res.res)) == duckdbError {
		msg := duckdbResultError(unsafe.Pointer(&res.res))
		duckdbDestroyResult(unsafe.Pointer(&res.res))
		return nil, NewError(ErrQuery, msg)
	}

	runtime.SetFinalizer(res, (*Result).Destroy)
	return res, nil
}

// Exec executes a SQL statement and discards the result, returning the
// number of rows changed.
func (c *Connection) Exec(sql string) (uint64, error) {
	res, err := c.Query(sql)
	if err != nil {
		return 0, err
	}
	defer res.Destroy()
	return res.RowsChanged(), nil
}
