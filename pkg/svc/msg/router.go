package msg

import (
	"sync"
	"sync/atomic"

	"github.com/svenny-voxen/voxen-go/internal/verr"
)

// Router owns every recipient's Queue plus the broadcast subscription
// table.
//
// Broadcast delivery semantics are an explicit open-question resolution
// (spec.md §9 / DESIGN.md): the source only declares broadcast message
// *types*, not delivery semantics, so this implements "subscribe per
// recipient, deliver a copy to every subscriber present at broadcast
// time" — tested in msg_test.go.
type Router struct {
	mu            sync.RWMutex
	queues        map[UID]*Queue
	broadcastSubs map[Kind][]UID
	nextShard     atomic.Uint32
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{queues: make(map[UID]*Queue), broadcastSubs: make(map[Kind][]UID)}
}

// NewQueue registers and returns a mailbox for owner. Registering the
// same owner twice panics — the original models this as a programming
// error, not a runtime condition.
func (r *Router) NewQueue(owner UID) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.queues[owner]; exists {
		panic("msg: queue already registered for this uid")
	}
	q := newQueue(owner, r)
	r.queues[owner] = q
	return q
}

func (r *Router) queue(uid UID) (*Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[uid]
	return q, ok
}

// Subscribe registers uid to receive every future broadcast of kind.
// Subscriptions already in effect are unaffected by later broadcasts of
// other kinds.
func (r *Router) Subscribe(kind Kind, uid UID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastSubs[kind] = append(r.broadcastSubs[kind], uid)
}

// Sender is a lightweight, copyable handle for sending as a fixed
// identity. Safe for concurrent use from any number of goroutines.
type Sender struct {
	router *Router
	from   UID
}

// NewSender returns a Sender that attributes every message it sends to
// from.
func NewSender(r *Router, from UID) Sender {
	return Sender{router: r, from: from}
}

// Send delivers payload (tagged kind) to to's queue, fire-and-forget.
// Returns verr.ErrUnresolvedDependency if to has no registered queue.
func (s Sender) Send(to UID, kind Kind, payload any) error {
	q, ok := s.router.queue(to)
	if !ok {
		return verr.Wrapf(verr.ErrUnresolvedDependency, "msg: recipient %d not registered", to)
	}
	q.push(int(s.router.nextShard.Add(1) % shardCount), &Envelope{From: s.from, Kind: kind, Payload: payload})
	return nil
}

// Broadcast delivers payload (tagged kind) to every UID currently
// subscribed to kind, and reports how many received it.
func (s Sender) Broadcast(kind Kind, payload any) int {
	r := s.router
	r.mu.RLock()
	subs := append([]UID(nil), r.broadcastSubs[kind]...)
	r.mu.RUnlock()

	delivered := 0
	for _, uid := range subs {
		if q, ok := r.queue(uid); ok {
			q.push(int(r.nextShard.Add(1) % shardCount), &Envelope{From: s.from, Kind: kind, Payload: payload})
			delivered++
		}
	}
	return delivered
}
