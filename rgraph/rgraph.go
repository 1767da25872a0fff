// Package rgraph is a thin typed façade over RedisGraph's Cypher query
// commands.
package rgraph

import goredis "github.com/xenking/goredis"

func init() {
	goredis.RegisterReadOnly("graph.ro_query", "graph.explain", "graph.list")
}

// Client wraps a Runner with RedisGraph's command surface.
type Client struct {
	r goredis.Runner
}

// New wraps an existing Runner with the RedisGraph command surface.
func New(r goredis.Runner) *Client {
	return &Client{r: r}
}

// ResultSet is a narrowed GRAPH.QUERY/GRAPH.RO_QUERY reply: the column
// header row followed by its data rows, each cell rendered as a string.
type ResultSet struct {
	Header []string
	Rows   [][]string
}

// Query runs GRAPH.QUERY graph cypher, a read/write Cypher statement.
func (c *Client) Query(graph, cypher string) (ResultSet, error) {
	return c.run("GRAPH.QUERY", graph, cypher)
}

// ReadOnlyQuery runs GRAPH.RO_QUERY graph cypher, rejected by the server if
// the statement would mutate the graph.
func (c *Client) ReadOnlyQuery(graph, cypher string) (ResultSet, error) {
	return c.run("GRAPH.RO_QUERY", graph, cypher)
}

// Delete runs GRAPH.DELETE graph.
func (c *Client) Delete(graph string) error {
	v, err := c.r.Run(goredis.NewCommand("GRAPH.DELETE", graph))
	if err != nil {
		return err
	}
	if v.Type == goredis.TypeError {
		return v.Err
	}
	return nil
}

func (c *Client) run(verb, graph, cypher string) (ResultSet, error) {
	v, err := c.r.Run(goredis.NewCommand(verb, graph, cypher))
	if err != nil {
		return ResultSet{}, err
	}
	if v.Type == goredis.TypeError {
		return ResultSet{}, v.Err
	}
	// A RedisGraph reply is [header, rows, stats]; a header-less query
	// (pure write, no RETURN) arrives as just [stats].
	if len(v.Array) < 2 {
		return ResultSet{}, nil
	}
	header := make([]string, len(v.Array[0].Array))
	for i, h := range v.Array[0].Array {
		header[i] = h.String()
	}
	rows := make([][]string, 0, len(v.Array[1].Array))
	for _, row := range v.Array[1].Array {
		cells := make([]string, len(row.Array))
		for i, cell := range row.Array {
			cells[i] = cell.String()
		}
		rows = append(rows, cells)
	}
	return ResultSet{Header: header, Rows: rows}, nil
}
