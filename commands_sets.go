package redis

// SAdd runs SADD key member... and returns the number of members added.
func (c *Client) SAdd(key string, members ...string) (int64, error) {
	args := append([]string{key}, members...)
	return c.runInteger(argsWithStrings("SADD", args...))
}

// SRem runs SREM key member... and returns the number of members removed.
func (c *Client) SRem(key string, members ...string) (int64, error) {
	args := append([]string{key}, members...)
	return c.runInteger(argsWithStrings("SREM", args...))
}

// SMembers runs SMEMBERS key.
func (c *Client) SMembers(key string) ([]string, error) {
	return c.runStringArray(NewCommand("SMEMBERS", key))
}

// SIsMember runs SISMEMBER key member.
func (c *Client) SIsMember(key, member string) (bool, error) {
	return c.runBool(NewCommand("SISMEMBER", key, member))
}

// SCard runs SCARD key.
func (c *Client) SCard(key string) (int64, error) {
	return c.runInteger(NewCommand("SCARD", key))
}

// SPop runs SPOP key and narrows the reply to (member, found).
func (c *Client) SPop(key string) (string, bool, error) {
	return c.runBulkString(NewCommand("SPOP", key))
}

// SInter runs SINTER key....
func (c *Client) SInter(keys ...string) ([]string, error) {
	return c.runStringArray(argsWithStrings("SINTER", keys...))
}

// SUnion runs SUNION key....
func (c *Client) SUnion(keys ...string) ([]string, error) {
	return c.runStringArray(argsWithStrings("SUNION", keys...))
}

// SDiff runs SDIFF key....
func (c *Client) SDiff(keys ...string) ([]string, error) {
	return c.runStringArray(argsWithStrings("SDIFF", keys...))
}
