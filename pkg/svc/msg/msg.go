// Package msg implements the engine's message router: per-recipient
// mailboxes with sharded lock-free-read segment queues, unicast
// send/request with status tracking, and broadcast.
//
// Grounded on spec.md §4.E. Wire framing for payloads that cross process
// boundaries (logging, the async file I/O boundary) reuses the teacher's
// length-prefixed big-endian binary convention from pkg/network/client.go
// — see pkg/svc/msg/wire.go.
package msg

import (
	"sync"
	"sync/atomic"
)

// UID identifies a message sender or recipient.
type UID uint64

// Kind tags the payload type of a message, the Go stand-in for the
// original's per-message-type template dispatch (Go has no runtime
// template instantiation, so callers pick a small stable Kind constant
// per message type instead, the same way the teacher's wire protocol in
// pkg/network/client.go tags frames with an opcode byte).
type Kind uint16

// Status is the lifecycle state of a tracked request.
type Status int

const (
	Pending Status = iota
	Complete
	Failed
	Dropped
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	case Dropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

const (
	shardCount  = 8
	segmentSize = 64
)

// Envelope is one message in transit: its sender, kind, payload, and
// (for tracked requests) the state a handler resolves.
type Envelope struct {
	From    UID
	Kind    Kind
	Payload any
	reply   *requestState
}

func (e *Envelope) resolve(status Status, err error) {
	if e.reply == nil {
		return
	}
	e.reply.mu.Lock()
	e.reply.status = status
	e.reply.err = err
	e.reply.mu.Unlock()
	close(e.reply.done)
}

// MessageInfo is handed to a handler alongside the payload so it can
// resolve a tracked request's outcome.
type MessageInfo struct {
	From UID
	env  *Envelope
}

// Complete marks the originating request as successfully handled. A
// no-op for messages sent fire-and-forget (via Send, not
// RequestWithHandle).
func (mi *MessageInfo) Complete() { mi.env.resolve(Complete, nil) }

// Fail marks the originating request as failed with err, retrievable via
// RequestHandle.RethrowIfFailed.
func (mi *MessageInfo) Fail(err error) { mi.env.resolve(Failed, err) }

// Handler processes one delivered message. info is nil for messages read
// outside a request (never happens via ReceiveAll, which always
// constructs one; callers just don't need to use it for fire-and-forget
// sends).
type Handler func(payload any, info *MessageInfo)

type segment struct {
	entries   [segmentSize]*Envelope
	published atomic.Int32
	next      atomic.Pointer[segment]
}

type shardQueue struct {
	mu   sync.Mutex
	head *segment
	tail *segment
	free []*segment
}

func newShardQueue() *shardQueue {
	s := &segment{}
	return &shardQueue{head: s, tail: s}
}

func (q *shardQueue) push(e *Envelope) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if int(q.tail.published.Load()) == segmentSize {
		var next *segment
		if n := len(q.free); n > 0 {
			next = q.free[n-1]
			q.free = q.free[:n-1]
			next.published.Store(0)
			next.next.Store(nil)
		} else {
			next = &segment{}
		}
		q.tail.next.Store(next)
		q.tail = next
	}

	idx := q.tail.published.Load()
	q.tail.entries[idx] = e
	q.tail.published.Store(idx + 1)
}

type shardCursor struct {
	seg *segment
	idx int32
}

// Queue is a recipient's mailbox: shardCount independent segment
// queues (spreading producer contention across senders) drained by a
// single owner via ReceiveAll.
type Queue struct {
	owner      UID
	router     *Router
	shards     [shardCount]*shardQueue
	cursors    [shardCount]shardCursor
	handlersMu sync.RWMutex
	handlers   map[Kind]Handler
}

func newQueue(owner UID, router *Router) *Queue {
	q := &Queue{owner: owner, router: router, handlers: make(map[Kind]Handler)}
	for i := range q.shards {
		q.shards[i] = newShardQueue()
		q.cursors[i] = shardCursor{seg: q.shards[i].head}
	}
	return q
}

// Register installs the handler invoked for messages of kind delivered
// to this queue. Registering the same kind twice replaces the handler.
func (q *Queue) Register(kind Kind, h Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[kind] = h
}

func (q *Queue) push(shard int, e *Envelope) {
	q.shards[shard].push(e)
}

// ReceiveAll drains every shard, invoking the registered handler for
// each message's Kind. Must be called only from the queue's single
// owning goroutine — shard pushes are safe from any goroutine, but
// draining is not.
func (q *Queue) ReceiveAll() {
	for s := range q.shards {
		q.receiveShard(s)
	}
}

func (q *Queue) receiveShard(s int) {
	sq := q.shards[s]
	c := &q.cursors[s]

	for {
		published := c.seg.published.Load()
		for c.idx < published {
			q.dispatch(c.seg.entries[c.idx])
			c.seg.entries[c.idx] = nil
			c.idx++
		}
		if int(published) < segmentSize {
			return // this segment isn't full yet, nothing more to drain
		}
		next := c.seg.next.Load()
		if next == nil {
			return // caught up with the tail
		}
		sq.mu.Lock()
		sq.head = next
		sq.free = append(sq.free, c.seg)
		sq.mu.Unlock()
		c.seg = next
		c.idx = 0
	}
}

func (q *Queue) dispatch(e *Envelope) {
	q.handlersMu.RLock()
	h, ok := q.handlers[e.Kind]
	q.handlersMu.RUnlock()

	info := &MessageInfo{From: e.From, env: e}
	if !ok {
		e.resolve(Dropped, nil)
		return
	}

	h(e.Payload, info)

	if e.reply != nil {
		e.reply.mu.Lock()
		stillPending := e.reply.status == Pending
		e.reply.mu.Unlock()
		if stillPending {
			e.resolve(Complete, nil)
		}
	}
}
