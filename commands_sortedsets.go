package redis

import "strconv"

// ScoredMember pairs a sorted-set member with its score, used by ZAdd and
// narrowed from WITHSCORES replies.
type ScoredMember struct {
	Member string
	Score  float64
}

// ZAdd runs ZADD key score member [score member ...] and returns the number
// of new members added.
func (c *Client) ZAdd(key string, members ...ScoredMember) (int64, error) {
	args := make([]interface{}, 0, len(members)*2+2)
	args = append(args, "ZADD", key)
	for _, m := range members {
		args = append(args, formatFloat(m.Score), m.Member)
	}
	return c.runInteger(Command{Args: commandArgs(args)})
}

// ZRem runs ZREM key member... and returns the number of members removed.
func (c *Client) ZRem(key string, members ...string) (int64, error) {
	args := append([]string{key}, members...)
	return c.runInteger(argsWithStrings("ZREM", args...))
}

// ZScore runs ZSCORE key member and narrows the reply to (score, found).
func (c *Client) ZScore(key, member string) (float64, bool, error) {
	return c.runDouble(NewCommand("ZSCORE", key, member))
}

// ZIncrBy runs ZINCRBY key delta member and returns the member's new score.
func (c *Client) ZIncrBy(key string, delta float64, member string) (float64, error) {
	f, _, err := c.runDouble(NewCommand("ZINCRBY", key, formatFloat(delta), member))
	return f, err
}

// ZCard runs ZCARD key.
func (c *Client) ZCard(key string) (int64, error) {
	return c.runInteger(NewCommand("ZCARD", key))
}

// ZRank runs ZRANK key member and narrows the reply to (rank, found).
func (c *Client) ZRank(key, member string) (int64, bool, error) {
	v, err := c.Run(NewCommand("ZRANK", key, member))
	if err != nil {
		return 0, false, err
	}
	if v.Type == TypeError {
		return 0, false, v.Err
	}
	if v.IsNull() {
		return 0, false, nil
	}
	return v.Integer, true, nil
}

// ZCount runs ZCOUNT key min max.
func (c *Client) ZCount(key, min, max string) (int64, error) {
	return c.runInteger(NewCommand("ZCOUNT", key, min, max))
}

// ZRange runs ZRANGE key start stop WITHSCORES and narrows the flat
// member/score reply into ScoredMember pairs.
func (c *Client) ZRange(key string, start, stop int64) ([]ScoredMember, error) {
	v, err := c.Run(NewCommand("ZRANGE", key, start, stop, "WITHSCORES"))
	if err != nil {
		return nil, err
	}
	if v.Type == TypeError {
		return nil, v.Err
	}
	out := make([]ScoredMember, 0, len(v.Array)/2)
	for i := 0; i+1 < len(v.Array); i += 2 {
		score, err := parseScoreValue(v.Array[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredMember{Member: v.Array[i].String(), Score: score})
	}
	return out, nil
}

func parseScoreValue(v Value) (float64, error) {
	if v.Type == TypeDouble {
		return v.Double, nil
	}
	return strconv.ParseFloat(v.String(), 64)
}
