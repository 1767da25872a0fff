package redis

import (
	"bufio"
	"testing"
)

func TestHashCommands(t *testing.T) {
	hash := map[string]string{}
	c := newTestClient(t, map[string]func(w *bufio.Writer, args [][]byte){
		"HSET": func(w *bufio.Writer, args [][]byte) {
			hash[string(args[2])] = string(args[3])
			writeInteger(w, 1)
		},
		"HGET": func(w *bufio.Writer, args [][]byte) {
			v, ok := hash[string(args[2])]
			if !ok {
				writeNullBulk(w)
				return
			}
			writeBulk(w, v)
		},
		"HGETALL": func(w *bufio.Writer, args [][]byte) {
			writeArrayHeader(w, len(hash)*2)
			for k, v := range hash {
				writeBulk(w, k)
				writeBulk(w, v)
			}
		},
		"HDEL": func(w *bufio.Writer, args [][]byte) {
			delete(hash, string(args[2]))
			writeInteger(w, 1)
		},
	})

	if _, err := c.HSet("h", "f1", "v1"); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	v, found, err := c.HGet("h", "f1")
	if err != nil || !found || v != "v1" {
		t.Fatalf("HGet = (%q, %v, %v)", v, found, err)
	}
	all, err := c.HGetAll("h")
	if err != nil || all["f1"] != "v1" {
		t.Fatalf("HGetAll = (%v, %v)", all, err)
	}
	n, err := c.HDel("h", "f1")
	if err != nil || n != 1 {
		t.Fatalf("HDel = (%d, %v)", n, err)
	}
}

func TestListCommands(t *testing.T) {
	var list []string
	c := newTestClient(t, map[string]func(w *bufio.Writer, args [][]byte){
		"RPUSH": func(w *bufio.Writer, args [][]byte) {
			for _, a := range args[2:] {
				list = append(list, string(a))
			}
			writeInteger(w, int64(len(list)))
		},
		"LPOP": func(w *bufio.Writer, args [][]byte) {
			if len(list) == 0 {
				writeNullBulk(w)
				return
			}
			v := list[0]
			list = list[1:]
			writeBulk(w, v)
		},
		"LLEN": func(w *bufio.Writer, args [][]byte) {
			writeInteger(w, int64(len(list)))
		},
	})

	n, err := c.RPush("l", "a", "b", "c")
	if err != nil || n != 3 {
		t.Fatalf("RPush = (%d, %v)", n, err)
	}
	v, found, err := c.LPop("l")
	if err != nil || !found || v != "a" {
		t.Fatalf("LPop = (%q, %v, %v)", v, found, err)
	}
	n, err = c.LLen("l")
	if err != nil || n != 2 {
		t.Fatalf("LLen = (%d, %v)", n, err)
	}
}

func TestSetCommands(t *testing.T) {
	set := map[string]struct{}{}
	c := newTestClient(t, map[string]func(w *bufio.Writer, args [][]byte){
		"SADD": func(w *bufio.Writer, args [][]byte) {
			added := int64(0)
			for _, a := range args[2:] {
				if _, ok := set[string(a)]; !ok {
					set[string(a)] = struct{}{}
					added++
				}
			}
			writeInteger(w, added)
		},
		"SISMEMBER": func(w *bufio.Writer, args [][]byte) {
			if _, ok := set[string(args[2])]; ok {
				writeInteger(w, 1)
			} else {
				writeInteger(w, 0)
			}
		},
		"SCARD": func(w *bufio.Writer, args [][]byte) {
			writeInteger(w, int64(len(set)))
		},
	})

	n, err := c.SAdd("s", "x", "y")
	if err != nil || n != 2 {
		t.Fatalf("SAdd = (%d, %v)", n, err)
	}
	ok, err := c.SIsMember("s", "x")
	if err != nil || !ok {
		t.Fatalf("SIsMember = (%v, %v)", ok, err)
	}
	n, err = c.SCard("s")
	if err != nil || n != 2 {
		t.Fatalf("SCard = (%d, %v)", n, err)
	}
}

func TestSortedSetCommands(t *testing.T) {
	c := newTestClient(t, map[string]func(w *bufio.Writer, args [][]byte){
		"ZADD": func(w *bufio.Writer, args [][]byte) {
			writeInteger(w, 1)
		},
		"ZSCORE": func(w *bufio.Writer, args [][]byte) {
			writeBulk(w, "3.5")
		},
		"ZRANGE": func(w *bufio.Writer, args [][]byte) {
			writeArrayHeader(w, 4)
			writeBulk(w, "alice")
			writeBulk(w, "1")
			writeBulk(w, "bob")
			writeBulk(w, "2")
		},
	})

	n, err := c.ZAdd("z", ScoredMember{Member: "alice", Score: 1})
	if err != nil || n != 1 {
		t.Fatalf("ZAdd = (%d, %v)", n, err)
	}
	score, found, err := c.ZScore("z", "alice")
	if err != nil || !found || score != 3.5 {
		t.Fatalf("ZScore = (%v, %v, %v)", score, found, err)
	}
	members, err := c.ZRange("z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if len(members) != 2 || members[0].Member != "alice" || members[0].Score != 1 || members[1].Score != 2 {
		t.Fatalf("ZRange = %+v", members)
	}
}

func TestStreamCommands(t *testing.T) {
	c := newTestClient(t, map[string]func(w *bufio.Writer, args [][]byte){
		"XADD": func(w *bufio.Writer, args [][]byte) {
			writeBulk(w, "1-0")
		},
		"XRANGE": func(w *bufio.Writer, args [][]byte) {
			writeArrayHeader(w, 1)
			writeArrayHeader(w, 2)
			writeBulk(w, "1-0")
			writeArrayHeader(w, 2)
			writeBulk(w, "field")
			writeBulk(w, "value")
		},
	})

	id, err := c.XAdd("st", "*", map[string]string{"field": "value"})
	if err != nil || id != "1-0" {
		t.Fatalf("XAdd = (%q, %v)", id, err)
	}
	entries, err := c.XRange("st", "-", "+")
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "1-0" || entries[0].Fields["field"] != "value" {
		t.Fatalf("XRange = %+v", entries)
	}
}
