package redis

// HGet runs HGET key field and narrows the reply to (value, found).
func (c *Client) HGet(key, field string) (string, bool, error) {
	return c.runBulkString(NewCommand("HGET", key, field))
}

// HSet runs HSET key field value and returns the number of fields added.
func (c *Client) HSet(key, field, value string) (int64, error) {
	return c.runInteger(NewCommand("HSET", key, field, value))
}

// HDel runs HDEL key field... and returns the number of fields removed.
func (c *Client) HDel(key string, fields ...string) (int64, error) {
	args := append([]string{key}, fields...)
	return c.runInteger(argsWithStrings("HDEL", args...))
}

// HGetAll runs HGETALL key and narrows the flat reply into a map.
func (c *Client) HGetAll(key string) (map[string]string, error) {
	v, err := c.Run(NewCommand("HGETALL", key))
	if err != nil {
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	out := make(map[string]string, len(v.Map))
	if v.Type == TypeMap {
		for _, e := range v.Map {
			out[e.Key.String()] = e.Value.String()
		}
		return out, nil
	}
	// RESP2 servers reply with a flat array of alternating field/value.
	for i := 0; i+1 < len(v.Array); i += 2 {
		out[v.Array[i].String()] = v.Array[i+1].String()
	}
	return out, nil
}

// HExists runs HEXISTS key field.
func (c *Client) HExists(key, field string) (bool, error) {
	return c.runBool(NewCommand("HEXISTS", key, field))
}

// HIncrBy runs HINCRBY key field delta.
func (c *Client) HIncrBy(key, field string, delta int64) (int64, error) {
	return c.runInteger(NewCommand("HINCRBY", key, field, delta))
}

// HLen runs HLEN key.
func (c *Client) HLen(key string) (int64, error) {
	return c.runInteger(NewCommand("HLEN", key))
}

// HKeys runs HKEYS key.
func (c *Client) HKeys(key string) ([]string, error) {
	return c.runStringArray(NewCommand("HKEYS", key))
}
