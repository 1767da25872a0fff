package redis

import (
	"bufio"
	"fmt"
	"net"
	"testing"
)

// newPipedConn wires a Connection to an in-process fake server over
// net.Pipe, bypassing Dial (and its handshake) for unit tests that only
// need to exercise the command paradigms against a scripted server.
func newPipedConn(t *testing.T, serve func(r *bufio.Reader, w *bufio.Writer)) *Connection {
	t.Helper()
	client, server := net.Pipe()
	c := &Connection{
		opt:  Options{Addr: "pipe"},
		conn: client,
		r:    bufio.NewReader(client),
		w:    bufio.NewWriter(client),
		mode: ModeIdle,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer server.Close()
		serve(bufio.NewReader(server), bufio.NewWriter(server))
	}()
	t.Cleanup(func() {
		client.Close()
		<-done
	})
	return c
}

// readCommand decodes one client-sent command from the fake server side.
func readCommand(r *bufio.Reader) (Command, error) {
	v, err := Decode(r)
	if err != nil {
		return Command{}, err
	}
	args := make([][]byte, len(v.Array))
	for i, e := range v.Array {
		args[i] = e.Bytes()
	}
	return Command{Args: args}, nil
}

func writeSimple(w *bufio.Writer, s string) {
	fmt.Fprintf(w, "+%s\r\n", s)
	w.Flush()
}

func writeInteger(w *bufio.Writer, n int64) {
	fmt.Fprintf(w, ":%d\r\n", n)
	w.Flush()
}

func writeBulk(w *bufio.Writer, s string) {
	fmt.Fprintf(w, "$%d\r\n%s\r\n", len(s), s)
	w.Flush()
}

func writeNullBulk(w *bufio.Writer) {
	fmt.Fprintf(w, "$-1\r\n")
	w.Flush()
}

func writeError(w *bufio.Writer, msg string) {
	fmt.Fprintf(w, "-%s\r\n", msg)
	w.Flush()
}

func writeArrayHeader(w *bufio.Writer, n int) {
	fmt.Fprintf(w, "*%d\r\n", n)
	w.Flush()
}

// writeNullArray writes RESP2's null-array reply, as BRPOP returns on
// timeout.
func writeNullArray(w *bufio.Writer) {
	fmt.Fprintf(w, "*-1\r\n")
	w.Flush()
}

// writeMultiBulkArray writes one complete RESP array of bulk strings, such
// as a pub/sub dispatch frame (subscribe/message/pmessage/unsubscribe).
func writeMultiBulkArray(w *bufio.Writer, parts ...string) {
	fmt.Fprintf(w, "*%d\r\n", len(parts))
	for _, p := range parts {
		fmt.Fprintf(w, "$%d\r\n%s\r\n", len(p), p)
	}
	w.Flush()
}
