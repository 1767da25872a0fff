package redis

import "strconv"

// The runXxx helpers below narrow a generic Value into a concrete Go
// return shape, mirroring the teacher's commandOK/commandInteger/
// commandBulkString/commandStringArray family (§4.6, §9).

func (c *Client) runOK(cmd Command) error {
	v, err := c.Run(cmd)
	if err != nil {
		return err
	}
	if v.Type == TypeError {
		return v.Err
	}
	return nil
}

func (c *Client) runInteger(cmd Command) (int64, error) {
	v, err := c.Run(cmd)
	if err != nil {
		return 0, err
	}
	if v.Type == TypeError {
		return 0, v.Err
	}
	return v.Integer, nil
}

func (c *Client) runBulkString(cmd Command) (string, bool, error) {
	v, err := c.Run(cmd)
	if err != nil {
		return "", false, err
	}
	if v.Type == TypeError {
		return "", false, v.Err
	}
	if v.IsNull() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (c *Client) runStringArray(cmd Command) ([]string, error) {
	v, err := c.Run(cmd)
	if err != nil {
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	out := make([]string, len(v.Array))
	for i, e := range v.Array {
		out[i] = e.String()
	}
	return out, nil
}

func (c *Client) runBool(cmd Command) (bool, error) {
	v, err := c.Run(cmd)
	if err != nil {
		return false, err
	}
	if v.Type == TypeError {
		return false, v.Err
	}
	if v.Type == TypeBoolean {
		return v.Bool, nil
	}
	return v.Integer != 0, nil
}

func argsWithStrings(verb string, parts ...string) Command {
	args := make([]interface{}, 0, len(parts)+1)
	args = append(args, verb)
	for _, p := range parts {
		args = append(args, p)
	}
	return Command{Args: commandArgs(args)}
}

// --- generic key commands ---

// Exists runs EXISTS key... and returns the number of keys that exist.
func (c *Client) Exists(keys ...string) (int64, error) {
	return c.runInteger(argsWithStrings("EXISTS", keys...))
}

// Expire runs EXPIRE key seconds.
func (c *Client) Expire(key string, seconds int64) (bool, error) {
	return c.runBool(NewCommand("EXPIRE", key, seconds))
}

// TTL runs TTL key.
func (c *Client) TTL(key string) (int64, error) {
	return c.runInteger(NewCommand("TTL", key))
}

// Type runs TYPE key.
func (c *Client) Type(key string) (string, error) {
	s, _, err := c.runBulkString(NewCommand("TYPE", key))
	return s, err
}

// Rename runs RENAME key newkey.
func (c *Client) Rename(key, newKey string) error {
	return c.runOK(NewCommand("RENAME", key, newKey))
}

// Persist runs PERSIST key.
func (c *Client) Persist(key string) (bool, error) {
	return c.runBool(NewCommand("PERSIST", key))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// runDouble narrows either a RESP3 double reply or a RESP2 bulk-string
// float reply (e.g. ZSCORE, ZINCRBY, INCRBYFLOAT) to a float64.
func (c *Client) runDouble(cmd Command) (float64, bool, error) {
	v, err := c.Run(cmd)
	if err != nil {
		return 0, false, err
	}
	if v.Type == TypeError {
		return 0, false, v.Err
	}
	if v.IsNull() {
		return 0, false, nil
	}
	if v.Type == TypeDouble {
		return v.Double, true, nil
	}
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}
