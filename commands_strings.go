package redis

// APPEND, GETSET, SETNX, INCRBY, DECRBY, STRLEN, MGET round out the string
// command surface beyond Get/Set/Incr/Decr in client.go.

// Append runs APPEND key value and returns the resulting string length.
func (c *Client) Append(key, value string) (int64, error) {
	return c.runInteger(NewCommand("APPEND", key, value))
}

// GetSet runs GETSET key value and narrows the reply to (previous, found).
func (c *Client) GetSet(key, value string) (string, bool, error) {
	return c.runBulkString(NewCommand("GETSET", key, value))
}

// SetNX runs SETNX key value, reporting whether the key was newly set.
func (c *Client) SetNX(key, value string) (bool, error) {
	return c.runBool(NewCommand("SETNX", key, value))
}

// IncrBy runs INCRBY key delta.
func (c *Client) IncrBy(key string, delta int64) (int64, error) {
	return c.runInteger(NewCommand("INCRBY", key, delta))
}

// DecrBy runs DECRBY key delta.
func (c *Client) DecrBy(key string, delta int64) (int64, error) {
	return c.runInteger(NewCommand("DECRBY", key, delta))
}

// StrLen runs STRLEN key.
func (c *Client) StrLen(key string) (int64, error) {
	return c.runInteger(NewCommand("STRLEN", key))
}

// MGet runs MGET key... and narrows the reply to one string per key; a key
// with no value reports the empty string at its index (callers that need
// to distinguish "empty" from "missing" should use Get per key instead).
func (c *Client) MGet(keys ...string) ([]string, error) {
	return c.runStringArray(argsWithStrings("MGET", keys...))
}

// MSet runs MSET key value key value ... in one round trip.
func (c *Client) MSet(pairs map[string]string) error {
	args := make([]interface{}, 0, len(pairs)*2+1)
	args = append(args, "MSET")
	for k, v := range pairs {
		args = append(args, k, v)
	}
	return c.runOK(Command{Args: commandArgs(args)})
}
