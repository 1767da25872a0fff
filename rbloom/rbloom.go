// Package rbloom is a thin typed façade over RedisBloom's probabilistic
// membership commands.
package rbloom

import goredis "github.com/xenking/goredis"

func init() {
	goredis.RegisterReadOnly("bf.exists", "bf.mexists", "bf.info", "bf.card")
}

// Client wraps a Runner with RedisBloom's command surface.
type Client struct {
	r goredis.Runner
}

// New wraps an existing Runner with the RedisBloom command surface.
func New(r goredis.Runner) *Client {
	return &Client{r: r}
}

// Reserve runs BF.RESERVE key errorRate capacity.
func (c *Client) Reserve(key string, errorRate float64, capacity int64) error {
	v, err := c.r.Run(goredis.NewCommand("BF.RESERVE", key, errorRate, capacity))
	if err != nil {
		return err
	}
	if v.Type == goredis.TypeError {
		return v.Err
	}
	return nil
}

// Add runs BF.ADD key item and reports whether the item was newly added.
func (c *Client) Add(key, item string) (bool, error) {
	v, err := c.r.Run(goredis.NewCommand("BF.ADD", key, item))
	if err != nil {
		return false, err
	}
	if v.Type == goredis.TypeError {
		return false, v.Err
	}
	return v.Integer != 0, nil
}

// Exists runs BF.EXISTS key item.
func (c *Client) Exists(key, item string) (bool, error) {
	v, err := c.r.Run(goredis.NewCommand("BF.EXISTS", key, item))
	if err != nil {
		return false, err
	}
	if v.Type == goredis.TypeError {
		return false, v.Err
	}
	return v.Integer != 0, nil
}

// MAdd runs BF.MADD key item... and reports, per item, whether it was newly
// added.
func (c *Client) MAdd(key string, items ...string) ([]bool, error) {
	args := make([]interface{}, 0, len(items)+2)
	args = append(args, "BF.MADD", key)
	for _, it := range items {
		args = append(args, it)
	}
	v, err := c.r.Run(goredis.NewCommand(args...))
	if err != nil {
		return nil, err
	}
	if v.Type == goredis.TypeError {
		return nil, v.Err
	}
	out := make([]bool, len(v.Array))
	for i, e := range v.Array {
		out[i] = e.Integer != 0
	}
	return out, nil
}

// MExists runs BF.MEXISTS key item... and reports, per item, whether it is
// (probably) a member.
func (c *Client) MExists(key string, items ...string) ([]bool, error) {
	args := make([]interface{}, 0, len(items)+2)
	args = append(args, "BF.MEXISTS", key)
	for _, it := range items {
		args = append(args, it)
	}
	v, err := c.r.Run(goredis.NewCommand(args...))
	if err != nil {
		return nil, err
	}
	if v.Type == goredis.TypeError {
		return nil, v.Err
	}
	out := make([]bool, len(v.Array))
	for i, e := range v.Array {
		out[i] = e.Integer != 0
	}
	return out, nil
}
