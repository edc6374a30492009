package duckdb

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config holds engine configuration options applied at open time.
type Config struct {
	cfg    uintptr
	closed int32
}

// NewConfig creates an empty engine configuration.
func NewConfig() (*Config, error) {
	if err := ensureLib(); err != nil {
		return nil, err
	}

	var cfg uintptr
	if duckdbCreateConfig(&cfg) == duckdbError {
		return nil, NewError(ErrConnection, "failed to create config")
	}

	c := &Config{cfg: cfg}
	runtime.SetFinalizer(c, (*Config).Destroy)
	return c, nil
}

// Set assigns one configuration option, such as "access_mode" or
// "max_memory". Unknown option names are rejected by the engine.
func (c *Config) Set(name, value string) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return errClosed("config")
	}
	if duckdbSetConfig(c.cfg, name, value) == duckdbError {
		return NewError(ErrConnection, "invalid config option: "+name)
	}
	return nil
}

// Destroy releases the configuration. Safe to call more than once.
func (c *Config) Destroy() {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return
	}
	duckdbDestroyConfig(&c.cfg)
	c.cfg = 0
	runtime.SetFinalizer(c, nil)
}

// Database represents an open DuckDB database instance.
type Database struct {
	db     uintptr
	closed int32
	mu     sync.Mutex
}

// Open opens a database at the given path. An empty path or ":memory:"
// opens an in-memory database.
func Open(path string) (*Database, error) {
	return OpenWithConfig(path, nil)
}

// OpenWithConfig opens a database applying the given configuration. The
// config may be nil. On failure the engine's own error text is returned.
func OpenWithConfig(path string, cfg *Config) (*Database, error) {
	if err := ensureLib(); err != nil {
		return nil, err
	}
	if path == "" {
		path = ":memory:"
	}

	var db uintptr
	if cfg == nil {
		if duckdbOpen(path, &db) == duckdbError {
			return nil, NewError(ErrConnection, "failed to open database: "+path)
		}
	} else {
		if atomic.LoadInt32(&cfg.closed) != 0 {
			return nil, errClosed("config")
		}
		var cErr uintptr
		if duckdbOpenExt(path, &db, cfg.cfg, &cErr) == duckdbError {
			msg := takeCString(cErr)
			if msg == "" {
				msg = "failed to open database: " + path
			}
			return nil, NewError(ErrConnection, msg)
		}
	}

	d := &Database{db: db}
	runtime.SetFinalizer(d, func(d *Database) { _ = d.Close() })
	return d, nil
}

// Connect creates a new connection to the database.
func (d *Database) Connect() (*Connection, error) {
	if atomic.LoadInt32(&d.closed) != 0 {
		return nil, errClosed("database")
	}

	var conn uintptr
	if duckdbConnect(d.db, &conn) == duckdbError {
		return nil, NewError(ErrConnection, "failed to connect to database")
	}

	c := &Connection{conn: conn, db: d}
	runtime.SetFinalizer(c, func(c *Connection) { _ = c.Close() })
	return c, nil
}

// Close shuts the database down. Connections must be closed first; closing
// is idempotent.
func (d *Database) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != 0 {
		duckdbClose(&d.db)
		d.db = 0
	}

	runtime.SetFinalizer(d, nil)
	return nil
}
