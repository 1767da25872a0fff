package redis

import (
	"fmt"
	"strconv"
)

// Command is an ordered sequence of byte-string arguments (§3 Command). The
// core interprets none of it except the first token, used for read/write
// routing.
type Command struct {
	Args [][]byte
}

// NewCommand builds a Command from mixed Go values. Strings and []byte pass
// through as-is; integers and floats are formatted exactly as the wire
// protocol expects them. Nil is encoded as a null bulk argument where a
// command documents that it accepts one.
func NewCommand(parts ...interface{}) Command {
	args := make([][]byte, 0, len(parts))
	for _, p := range parts {
		args = append(args, toArg(p))
	}
	return Command{Args: args}
}

func toArg(p interface{}) []byte {
	switch v := p.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	case int:
		return strconv.AppendInt(nil, int64(v), 10)
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case uint64:
		return strconv.AppendUint(nil, v, 10)
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64)
	case bool:
		if v {
			return []byte("1")
		}
		return []byte("0")
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(nil)
	}
}

// Name returns the lowercased first token, used by the read-only registry
// and by cluster key extraction.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return lowerASCII(string(c.Args[0]))
}

// Key returns the command's routable key (conventionally the second token)
// and whether one was present.
func (c Command) Key() ([]byte, bool) {
	if len(c.Args) < 2 {
		return nil, false
	}
	return c.Args[1], true
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
