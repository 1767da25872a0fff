package rtimeseries

import (
	"testing"

	goredis "github.com/xenking/goredis"
)

type fakeRunner struct {
	reply goredis.Value
	err   error
}

func (f *fakeRunner) Run(cmd goredis.Command) (goredis.Value, error) {
	return f.reply, f.err
}

func TestRangeParsesSamples(t *testing.T) {
	f := &fakeRunner{reply: goredis.Value{Type: goredis.TypeArray, Array: []goredis.Value{
		{Type: goredis.TypeArray, Array: []goredis.Value{
			{Type: goredis.TypeInteger, Integer: 1000},
			{Type: goredis.TypeBulkString, Str: []byte("1.5")},
		}},
		{Type: goredis.TypeArray, Array: []goredis.Value{
			{Type: goredis.TypeInteger, Integer: 2000},
			{Type: goredis.TypeDouble, Double: 2.5},
		}},
	}}}
	c := New(f)
	samples, err := c.Range("temp", 0, 3000)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Timestamp != 1000 || samples[0].Value != 1.5 {
		t.Errorf("samples[0] = %+v", samples[0])
	}
	if samples[1].Timestamp != 2000 || samples[1].Value != 2.5 {
		t.Errorf("samples[1] = %+v", samples[1])
	}
}

func TestGetEmptySeriesReportsNotFound(t *testing.T) {
	f := &fakeRunner{reply: goredis.Value{Type: goredis.TypeNull}}
	c := New(f)
	_, found, err := c.Get("temp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for a null reply")
	}
}
