package duckdb

// Transaction control is passthrough SQL on a connection. The engine owns
// all transactional state; these helpers only wrap the statements.

// Begin starts a transaction on the connection.
func (c *Connection) Begin() error {
	_, err := c.Exec("BEGIN TRANSACTION")
	if err != nil {
		return NewError(ErrTransaction, err.(*Error).Message)
	}
	return nil
}

// Commit commits the current transaction.
func (c *Connection) Commit() error {
	_, err := c.Exec("COMMIT")
	if err != nil {
		return NewError(ErrTransaction, err.(*Error).Message)
	}
	return nil
}

// Rollback aborts the current transaction.
func (c *Connection) Rollback() error {
	_, err := c.Exec("ROLLBACK")
	if err != nil {
		return NewError(ErrTransaction, err.(*Error).Message)
	}
	return nil
}
