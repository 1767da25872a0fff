package redis

// LPush runs LPUSH key value... and returns the resulting list length.
func (c *Client) LPush(key string, values ...string) (int64, error) {
	args := append([]string{key}, values...)
	return c.runInteger(argsWithStrings("LPUSH", args...))
}

// RPush runs RPUSH key value... and returns the resulting list length.
func (c *Client) RPush(key string, values ...string) (int64, error) {
	args := append([]string{key}, values...)
	return c.runInteger(argsWithStrings("RPUSH", args...))
}

// LPop runs LPOP key and narrows the reply to (value, found).
func (c *Client) LPop(key string) (string, bool, error) {
	return c.runBulkString(NewCommand("LPOP", key))
}

// RPop runs RPOP key and narrows the reply to (value, found).
func (c *Client) RPop(key string) (string, bool, error) {
	return c.runBulkString(NewCommand("RPOP", key))
}

// LLen runs LLEN key.
func (c *Client) LLen(key string) (int64, error) {
	return c.runInteger(NewCommand("LLEN", key))
}

// LIndex runs LINDEX key index and narrows the reply to (value, found).
func (c *Client) LIndex(key string, index int64) (string, bool, error) {
	return c.runBulkString(NewCommand("LINDEX", key, index))
}

// LSet runs LSET key index value.
func (c *Client) LSet(key string, index int64, value string) error {
	return c.runOK(NewCommand("LSET", key, index, value))
}

// LTrim runs LTRIM key start stop.
func (c *Client) LTrim(key string, start, stop int64) error {
	return c.runOK(NewCommand("LTRIM", key, start, stop))
}

// LInsertBefore runs LINSERT key BEFORE pivot value and returns the
// resulting list length, or -1 if the pivot was not found.
func (c *Client) LInsertBefore(key, pivot, value string) (int64, error) {
	return c.runInteger(NewCommand("LINSERT", key, "BEFORE", pivot, value))
}

// LInsertAfter runs LINSERT key AFTER pivot value and returns the
// resulting list length, or -1 if the pivot was not found.
func (c *Client) LInsertAfter(key, pivot, value string) (int64, error) {
	return c.runInteger(NewCommand("LINSERT", key, "AFTER", pivot, value))
}

// LRem runs LREM key count value.
func (c *Client) LRem(key string, count int64, value string) (int64, error) {
	return c.runInteger(NewCommand("LREM", key, count, value))
}

// BLPop runs BLPOP key timeout and narrows the two-element array reply to
// (value, found); it blocks on the connection checked out from the pool for
// up to timeout seconds.
func (c *Client) BLPop(key string, timeout int64) (string, bool, error) {
	v, err := c.Run(NewCommand("BLPOP", key, timeout))
	if err != nil {
		return "", false, err
	}
	if v.Type == TypeError {
		return "", false, v.Err
	}
	if v.IsNull() || len(v.Array) < 2 {
		return "", false, nil
	}
	return v.Array[1].String(), true, nil
}
