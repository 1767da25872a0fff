package redis

import "fmt"

// ErrClosed rejects command execution after a Connection or Pool Close.
var ErrClosed = poolError("redis: client closed")

// ErrPoolClosed is returned by Checkout once the owning Pool has been closed.
var ErrPoolClosed = poolError("redis: pool closed")

// ErrPoolTimeout is returned by Checkout when no connection becomes
// available within checkout_timeout.
var ErrPoolTimeout = poolError("redis: checkout timeout")

// ErrConnLost signals connection loss while a command awaited its response.
var ErrConnLost = poolError("redis: connection lost while awaiting response")

// ErrProtocol signals a malformed RESP frame. The connection that produced
// it is always closed, never returned to a pool.
var ErrProtocol = poolError("redis: protocol violation")

// ErrFutureUnresolved is returned by Future.Value when read before the
// owning Pipeline has been drained.
var ErrFutureUnresolved = poolError("redis: future not resolved yet")

// ErrNoKey is the semantic error returned when cluster routing requires a
// key to compute a hash slot but the command carries none.
var ErrNoKey = poolError("redis: command has no routable key")

// ErrUnsupportedTopology is returned when a cluster node reports more than
// one disjoint hash-slot range. The core only understands the single
// contiguous range per shard that real deployments use in practice.
var ErrUnsupportedTopology = poolError("redis: cluster node reports multiple slot ranges, unsupported")

// poolError is a trivial string-backed error, mirroring the teacher's
// errors.New-based sentinels so all of them compare with ==.
type poolError string

func (e poolError) Error() string { return string(e) }

// ErrorKind classifies a server error (§3 Error kinds).
type ErrorKind string

const (
	KindGeneric    ErrorKind = "GENERIC"
	KindNoGroup    ErrorKind = "NOGROUP"
	KindBusyGroup  ErrorKind = "BUSYGROUP"
	KindMoved      ErrorKind = "MOVED"
	KindAsk        ErrorKind = "ASK"
	KindCrossSlot  ErrorKind = "CROSSSLOT"
)

var knownKinds = map[string]ErrorKind{
	"NOGROUP":   KindNoGroup,
	"BUSYGROUP": KindBusyGroup,
	"MOVED":     KindMoved,
	"ASK":       KindAsk,
	"CROSSSLOT": KindCrossSlot,
}

// ServerError is a decoded "-" or "!" reply. It always satisfies error, so
// callers outside a pipeline/transaction can return it directly.
type ServerError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("redis: server error %s: %s", e.Kind, e.Message)
}

// newServerError splits on the first space: leading token decides Kind.
func newServerError(text string) *ServerError {
	i := indexByte(text, ' ')
	if i < 0 {
		kind, ok := knownKinds[text]
		if !ok {
			kind = KindGeneric
		}
		return &ServerError{Kind: kind, Message: text}
	}
	token := text[:i]
	kind, ok := knownKinds[token]
	if !ok {
		kind = KindGeneric
	}
	return &ServerError{Kind: kind, Message: text}
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
