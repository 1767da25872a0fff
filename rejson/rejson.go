// Package rejson is a thin typed façade over the RedisJSON module's
// commands, built on the same Runner any of the core front-ends satisfy.
package rejson

import goredis "github.com/xenking/goredis"

func init() {
	goredis.RegisterReadOnly("json.get", "json.mget", "json.type", "json.arrlen", "json.strlen", "json.objkeys", "json.objlen")
}

// Client wraps a Runner with RedisJSON's document commands.
type Client struct {
	r goredis.Runner
}

// New wraps an existing Runner (a *goredis.Client, *goredis.ReplicationClient
// or *goredis.Cluster) with the RedisJSON command surface.
func New(r goredis.Runner) *Client {
	return &Client{r: r}
}

// Set runs JSON.SET key path value, where value is a JSON-encoded string.
func (c *Client) Set(key, path, value string) error {
	v, err := c.r.Run(goredis.NewCommand("JSON.SET", key, path, value))
	if err != nil {
		return err
	}
	if v.Type == goredis.TypeError {
		return v.Err
	}
	return nil
}

// Get runs JSON.GET key [path] and returns the raw JSON reply, or found=false
// if the key does not exist.
func (c *Client) Get(key string, path string) (string, bool, error) {
	args := []interface{}{"JSON.GET", key}
	if path != "" {
		args = append(args, path)
	}
	v, err := c.r.Run(goredis.NewCommand(args...))
	if err != nil {
		return "", false, err
	}
	if v.Type == goredis.TypeError {
		return "", false, v.Err
	}
	if v.IsNull() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// Del runs JSON.DEL key [path] and returns the number of paths deleted.
func (c *Client) Del(key, path string) (int64, error) {
	args := []interface{}{"JSON.DEL", key}
	if path != "" {
		args = append(args, path)
	}
	v, err := c.r.Run(goredis.NewCommand(args...))
	if err != nil {
		return 0, err
	}
	if v.Type == goredis.TypeError {
		return 0, v.Err
	}
	return v.Integer, nil
}

// Type runs JSON.TYPE key [path].
func (c *Client) Type(key, path string) (string, error) {
	args := []interface{}{"JSON.TYPE", key}
	if path != "" {
		args = append(args, path)
	}
	v, err := c.r.Run(goredis.NewCommand(args...))
	if err != nil {
		return "", err
	}
	if v.Type == goredis.TypeError {
		return "", v.Err
	}
	return v.String(), nil
}
