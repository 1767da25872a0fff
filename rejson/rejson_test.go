package rejson

import (
	"testing"

	goredis "github.com/xenking/goredis"
)

type fakeRunner struct {
	reply goredis.Value
	err   error
	last  goredis.Command
}

func (f *fakeRunner) Run(cmd goredis.Command) (goredis.Value, error) {
	f.last = cmd
	return f.reply, f.err
}

func TestGetReturnsFoundFalseOnNull(t *testing.T) {
	f := &fakeRunner{reply: goredis.Value{Type: goredis.TypeNull}}
	c := New(f)
	_, found, err := c.Get("doc", "$")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected found=false on a null reply")
	}
}

func TestGetReturnsRawJSON(t *testing.T) {
	f := &fakeRunner{reply: goredis.Value{Type: goredis.TypeBulkString, Str: []byte(`{"a":1}`)}}
	c := New(f)
	body, found, err := c.Get("doc", "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || body != `{"a":1}` {
		t.Fatalf("Get = (%q, %v), want ({\"a\":1}, true)", body, found)
	}
	if string(f.last.Args[0]) != "JSON.GET" {
		t.Fatalf("expected JSON.GET as the command verb, got %q", f.last.Args[0])
	}
}

func TestDelReturnsIntegerCount(t *testing.T) {
	f := &fakeRunner{reply: goredis.Value{Type: goredis.TypeInteger, Integer: 2}}
	c := New(f)
	n, err := c.Del("doc", "$.a")
	if err != nil {
		t.Fatalf("Del: %v", err)
	}
	if n != 2 {
		t.Fatalf("Del = %d, want 2", n)
	}
}
