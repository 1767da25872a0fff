package redis

// StreamEntry is one entry of a stream reply: an ID and its flat
// field/value pairs.
type StreamEntry struct {
	ID     string
	Fields map[string]string
}

// XAdd runs XADD key id field value [field value ...] and returns the
// assigned entry ID. Pass "*" for id to let the server assign one.
func (c *Client) XAdd(key, id string, fields map[string]string) (string, error) {
	args := make([]interface{}, 0, len(fields)*2+3)
	args = append(args, "XADD", key, id)
	for k, v := range fields {
		args = append(args, k, v)
	}
	s, _, err := c.runBulkString(Command{Args: commandArgs(args)})
	return s, err
}

// XLen runs XLEN key.
func (c *Client) XLen(key string) (int64, error) {
	return c.runInteger(NewCommand("XLEN", key))
}

// XRange runs XRANGE key start end and narrows each entry into a
// StreamEntry.
func (c *Client) XRange(key, start, end string) ([]StreamEntry, error) {
	return c.runStreamEntries(NewCommand("XRANGE", key, start, end))
}

// XRevRange runs XREVRANGE key end start and narrows each entry into a
// StreamEntry.
func (c *Client) XRevRange(key, end, start string) ([]StreamEntry, error) {
	return c.runStreamEntries(NewCommand("XREVRANGE", key, end, start))
}

func (c *Client) runStreamEntries(cmd Command) ([]StreamEntry, error) {
	v, err := c.Run(cmd)
	if err != nil {
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	out := make([]StreamEntry, 0, len(v.Array))
	for _, e := range v.Array {
		out = append(out, parseStreamEntry(e))
	}
	return out, nil
}

func parseStreamEntry(v Value) StreamEntry {
	entry := StreamEntry{Fields: make(map[string]string)}
	if len(v.Array) < 2 {
		return entry
	}
	entry.ID = v.Array[0].String()
	flat := v.Array[1].Array
	for i := 0; i+1 < len(flat); i += 2 {
		entry.Fields[flat[i].String()] = flat[i+1].String()
	}
	return entry
}

// XDel runs XDEL key id... and returns the number of entries removed.
func (c *Client) XDel(key string, ids ...string) (int64, error) {
	args := append([]string{key}, ids...)
	return c.runInteger(argsWithStrings("XDEL", args...))
}

// XTrim runs XTRIM key MAXLEN count and returns the number of entries
// removed.
func (c *Client) XTrim(key string, maxLen int64) (int64, error) {
	return c.runInteger(NewCommand("XTRIM", key, "MAXLEN", maxLen))
}
