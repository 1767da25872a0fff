package redis

// Transaction tracks the queued→committed/discarded state machine of one
// MULTI/EXEC block (§4.4). It exists only between Connection.Transaction's
// MULTI and its EXEC/DISCARD.
type Transaction struct {
	conn      *Connection
	discarded bool
	broke     bool
	breakVal  []Value
}

// Queue sends cmd and discards its QUEUED acknowledgment. After Discard has
// been called, Queue becomes a silent no-op (§4.4 observable contract).
func (t *Transaction) Queue(cmd Command) error {
	if t.discarded {
		return nil
	}
	v, err := t.conn.runLocked(cmd)
	if err != nil {
		t.conn.broken = true
		return err
	}
	if v.Type == TypeError {
		return v.Err
	}
	return nil
}

// Discard issues DISCARD, marks the transaction discarded, and causes the
// final reply to be the empty array unless Break was also called. Calling
// Discard more than once is a no-op.
func (t *Transaction) Discard() error {
	if t.discarded {
		return nil
	}
	v, err := t.conn.runLocked(NewCommand("DISCARD"))
	t.discarded = true
	if err != nil {
		t.conn.broken = true
		return err
	}
	if v.Type == TypeError {
		return v.Err
	}
	return nil
}

// Break exits the transaction block with a caller-supplied value that
// replaces the normal EXEC reply array in Connection.Transaction's return,
// without itself discarding queued commands (§4.4, §4.9's "non-local exit"
// wording in §9's design notes: Break is a value-carrying early return, not
// a rollback — pair it with Discard if both are wanted).
func (t *Transaction) Break(values []Value) {
	t.broke = true
	t.breakVal = values
}

// forceDiscard is used when fn returns a non-nil error (an exception /
// non-local exit per §4.4): the transaction must be discarded before the
// error propagates.
func (t *Transaction) forceDiscard() {
	if t.discarded || t.conn.broken {
		t.discarded = true
		return
	}
	v, err := t.conn.runLocked(NewCommand("DISCARD"))
	t.discarded = true
	if err != nil {
		t.conn.broken = true
		return
	}
	_ = v
}

// Transaction issues MULTI, runs fn with a Transaction that queues commands,
// then issues EXEC (or DISCARD, if fn called tx.Discard or returned an
// error) and returns the array of per-queued-command replies (§4.4). A
// reconnect failure mid-transaction marks the connection broken; the
// caller's Pool, if configured to retry transactions, re-runs the whole
// block on a fresh connection.
func (c *Connection) Transaction(fn func(tx *Transaction) error) ([]Value, error) {
	if err := c.reconnectIfBroken(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = ModeInTransaction
	defer func() { c.mode = ModeIdle }()

	if v, err := c.runLocked(NewCommand("MULTI")); err != nil {
		c.broken = true
		return nil, err
	} else if v.Type == TypeError {
		return nil, v.Err
	}

	tx := &Transaction{conn: c}
	blockErr := fn(tx)

	if blockErr != nil {
		tx.forceDiscard()
		return nil, blockErr
	}

	if tx.discarded {
		if tx.broke {
			return tx.breakVal, nil
		}
		return []Value{}, nil
	}

	v, err := c.runLocked(NewCommand("EXEC"))
	if err != nil {
		c.broken = true
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	if tx.broke {
		return tx.breakVal, nil
	}
	return v.Array, nil
}
