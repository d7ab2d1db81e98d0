package msg

import (
	"sync"

	"github.com/svenny-voxen/voxen-go/internal/verr"
)

type requestState struct {
	mu     sync.Mutex
	status Status
	err    error
	done   chan struct{}
}

// RequestHandle tracks the outcome of a message sent via
// RequestWithHandle. Payload is the same pointer the recipient's handler
// received, so once Wait returns Complete the caller can read whatever
// the handler wrote into it.
type RequestHandle[T any] struct {
	state   *requestState
	Payload *T
}

// Status returns the request's current status without blocking.
func (h *RequestHandle[T]) Status() Status {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return h.state.status
}

// Wait blocks until the request is no longer Pending and returns the
// final status.
func (h *RequestHandle[T]) Wait() Status {
	<-h.state.done
	return h.Status()
}

// RethrowIfFailed waits for the request to resolve and returns the
// handler's failure error, if any. Returns nil for Complete, and
// verr.ErrUnknownError wrapping nothing useful for Dropped (there is no
// handler error to report — the recipient had no handler for this kind;
// an unregistered recipient is reported by RequestWithHandle itself).
func (h *RequestHandle[T]) RethrowIfFailed() error {
	switch h.Wait() {
	case Failed:
		h.state.mu.Lock()
		defer h.state.mu.Unlock()
		return h.state.err
	case Dropped:
		return verr.ErrUnknownError
	default:
		return nil
	}
}

// RequestWithHandle sends payload to to, tagged kind, and returns a
// handle tracking the recipient's handling of it. Returns
// verr.ErrUnresolvedDependency if to has no registered queue.
func RequestWithHandle[T any](s Sender, to UID, kind Kind, payload *T) (*RequestHandle[T], error) {
	q, ok := s.router.queue(to)
	if !ok {
		return nil, verr.Wrapf(verr.ErrUnresolvedDependency, "msg: recipient %d not registered", to)
	}
	state := &requestState{done: make(chan struct{})}
	q.push(int(s.router.nextShard.Add(1)%shardCount), &Envelope{From: s.from, Kind: kind, Payload: payload, reply: state})
	return &RequestHandle[T]{state: state, Payload: payload}, nil
}
