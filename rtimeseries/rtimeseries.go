// Package rtimeseries is a thin typed façade over RedisTimeSeries's
// sample commands.
package rtimeseries

import (
	"strconv"

	goredis "github.com/xenking/goredis"
)

func init() {
	goredis.RegisterReadOnly("ts.range", "ts.revrange", "ts.get", "ts.mrange", "ts.mget", "ts.info")
}

// Client wraps a Runner with RedisTimeSeries's command surface.
type Client struct {
	r goredis.Runner
}

// New wraps an existing Runner with the RedisTimeSeries command surface.
func New(r goredis.Runner) *Client {
	return &Client{r: r}
}

// Sample is one (timestamp, value) point of a time series.
type Sample struct {
	Timestamp int64
	Value     float64
}

// Create runs TS.CREATE key.
func (c *Client) Create(key string) error {
	v, err := c.r.Run(goredis.NewCommand("TS.CREATE", key))
	if err != nil {
		return err
	}
	if v.Type == goredis.TypeError {
		return v.Err
	}
	return nil
}

// Add runs TS.ADD key timestamp value and returns the timestamp the server
// stored the sample under.
func (c *Client) Add(key string, timestamp int64, value float64) (int64, error) {
	v, err := c.r.Run(goredis.NewCommand("TS.ADD", key, timestamp, strconv.FormatFloat(value, 'f', -1, 64)))
	if err != nil {
		return 0, err
	}
	if v.Type == goredis.TypeError {
		return 0, v.Err
	}
	return v.Integer, nil
}

// Range runs TS.RANGE key fromTimestamp toTimestamp and narrows the reply
// into a Sample slice.
func (c *Client) Range(key string, from, to int64) ([]Sample, error) {
	v, err := c.r.Run(goredis.NewCommand("TS.RANGE", key, from, to))
	if err != nil {
		return nil, err
	}
	if v.Type == goredis.TypeError {
		return nil, v.Err
	}
	out := make([]Sample, 0, len(v.Array))
	for _, e := range v.Array {
		if len(e.Array) < 2 {
			continue
		}
		out = append(out, Sample{Timestamp: e.Array[0].Integer, Value: parseFloat(e.Array[1])})
	}
	return out, nil
}

// Get runs TS.GET key and narrows the reply to the latest Sample, or
// found=false if the series is empty.
func (c *Client) Get(key string) (Sample, bool, error) {
	v, err := c.r.Run(goredis.NewCommand("TS.GET", key))
	if err != nil {
		return Sample{}, false, err
	}
	if v.Type == goredis.TypeError {
		return Sample{}, false, v.Err
	}
	if v.IsNull() || len(v.Array) < 2 {
		return Sample{}, false, nil
	}
	return Sample{Timestamp: v.Array[0].Integer, Value: parseFloat(v.Array[1])}, true, nil
}

func parseFloat(v goredis.Value) float64 {
	if v.Type == goredis.TypeDouble {
		return v.Double
	}
	f, _ := strconv.ParseFloat(v.String(), 64)
	return f
}
