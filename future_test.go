package redis

import "testing"

func TestFutureUnresolvedReadFails(t *testing.T) {
	f := &Future{}
	if _, err := f.Value(); err != ErrFutureUnresolved {
		t.Fatalf("got %v, want ErrFutureUnresolved", err)
	}
}

func TestFutureResolveThenRead(t *testing.T) {
	f := &Future{}
	want := Value{Type: TypeInteger, Integer: 42}
	f.resolve(want, nil)
	got, err := f.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Integer != 42 {
		t.Fatalf("got %+v", got)
	}
}

func TestFutureResolvesServerErrorAsValueNotErr(t *testing.T) {
	f := &Future{}
	f.resolve(Value{Type: TypeError, Err: newServerError("WRONGTYPE bad")}, nil)
	v, err := f.Value()
	if err != nil {
		t.Fatalf("resolution err should be nil, got %v", err)
	}
	if v.Type != TypeError {
		t.Fatalf("got %+v", v)
	}
}
