// Package research is a thin typed façade over RediSearch's full-text
// search commands.
package research

import goredis "github.com/xenking/goredis"

func init() {
	goredis.RegisterReadOnly("ft.search", "ft.aggregate", "ft.info", "ft.explain", "ft.tagvals")
}

// Client wraps a Runner with RediSearch's index and query commands.
type Client struct {
	r goredis.Runner
}

// New wraps an existing Runner with the RediSearch command surface.
func New(r goredis.Runner) *Client {
	return &Client{r: r}
}

// Document is one row of a FT.SEARCH reply: its key and flat field/value
// pairs.
type Document struct {
	ID     string
	Fields map[string]string
}

// SearchResult is a narrowed FT.SEARCH reply.
type SearchResult struct {
	Total int64
	Docs  []Document
}

// CreateIndex runs FT.CREATE index SCHEMA field... verbatim; schema syntax
// is passed through as-is since RediSearch's schema grammar is its own
// domain, not something this façade re-expresses.
func (c *Client) CreateIndex(index string, schemaArgs ...string) error {
	args := append([]string{"FT.CREATE", index, "SCHEMA"}, schemaArgs...)
	v, err := c.r.Run(goredis.NewCommand(stringsToInterfaces(args)...))
	if err != nil {
		return err
	}
	if v.Type == goredis.TypeError {
		return v.Err
	}
	return nil
}

// DropIndex runs FT.DROPINDEX index.
func (c *Client) DropIndex(index string) error {
	v, err := c.r.Run(goredis.NewCommand("FT.DROPINDEX", index))
	if err != nil {
		return err
	}
	if v.Type == goredis.TypeError {
		return v.Err
	}
	return nil
}

// Search runs FT.SEARCH index query and narrows the [total, id, fields...]
// reply shape into a SearchResult.
func (c *Client) Search(index, query string) (SearchResult, error) {
	v, err := c.r.Run(goredis.NewCommand("FT.SEARCH", index, query))
	if err != nil {
		return SearchResult{}, err
	}
	if v.Type == goredis.TypeError {
		return SearchResult{}, v.Err
	}
	if len(v.Array) == 0 {
		return SearchResult{}, nil
	}
	res := SearchResult{Total: v.Array[0].Integer}
	for i := 1; i+1 < len(v.Array); i += 2 {
		doc := Document{ID: v.Array[i].String(), Fields: map[string]string{}}
		flat := v.Array[i+1].Array
		for j := 0; j+1 < len(flat); j += 2 {
			doc.Fields[flat[j].String()] = flat[j+1].String()
		}
		res.Docs = append(res.Docs, doc)
	}
	return res, nil
}

func stringsToInterfaces(parts []string) []interface{} {
	out := make([]interface{}, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
