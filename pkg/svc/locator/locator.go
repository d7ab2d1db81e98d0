// Package locator implements the engine's service locator: a registry of
// lazily-constructed singleton services keyed by a small integer UID,
// resolving dependencies between factories on first request and tearing
// them down in reverse construction order on shutdown.
package locator

import (
	"fmt"
	"sync"

	"github.com/svenny-voxen/voxen-go/internal/verr"
)

// UID identifies a service. Callers typically define their own UID
// constants (iota-based) per service they register.
type UID int

// Factory constructs a service instance. It receives the Locator so it
// may itself call Request for its own dependencies — this is how
// dependency graphs get resolved lazily, one Request at a time.
type Factory func(l *Locator) (any, error)

// Destructor tears a service instance down. Called during Shutdown with
// no lock held, in the reverse order services were constructed.
type Destructor func(instance any)

type entry struct {
	factory    Factory
	destructor Destructor
	instance   any
	built      bool
}

// Locator is a registry of service factories and, once constructed, their
// instances. Safe for concurrent use.
type Locator struct {
	mu         sync.RWMutex
	entries    map[UID]*entry
	pending    []UID // factories currently under construction, for cycle detection
	startOrder []UID
}

// New creates an empty Locator.
func New() *Locator {
	return &Locator{entries: make(map[UID]*entry)}
}

// Register installs a factory (and optional destructor, may be nil) for
// uid. Registering the same uid twice is a programming error.
func (l *Locator) Register(uid UID, factory Factory, destructor Destructor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[uid]; exists {
		panic(fmt.Sprintf("locator: uid %d already registered", uid))
	}
	l.entries[uid] = &entry{factory: factory, destructor: destructor}
}

// Request returns the instance for uid, constructing it (and, transitively,
// any dependency it Requests) on first call. Returns
// verr.ErrUnresolvedDependency if uid was never registered, or
// verr.ErrCircularDependency if constructing uid recursively requests
// itself.
func (l *Locator) Request(uid UID) (any, error) {
	l.mu.Lock()

	e, ok := l.entries[uid]
	if !ok {
		l.mu.Unlock()
		return nil, verr.Wrapf(verr.ErrUnresolvedDependency, "locator: uid %d not registered", uid)
	}
	if e.built {
		l.mu.Unlock()
		return e.instance, nil
	}
	for _, p := range l.pending {
		if p == uid {
			chain := append(append([]UID{}, l.pending...), uid)
			l.mu.Unlock()
			return nil, verr.Wrapf(verr.ErrCircularDependency, "locator: cycle building uid %d: chain %v", uid, chain)
		}
	}
	l.pending = append(l.pending, uid)
	l.mu.Unlock()

	instance, err := e.factory(l)

	l.mu.Lock()
	l.pending = l.pending[:len(l.pending)-1]
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	e.instance = instance
	e.built = true
	l.startOrder = append(l.startOrder, uid)
	l.mu.Unlock()

	return instance, nil
}

// Request is the generics-based variant of Locator.Request: it performs
// the same lookup and construction, then type-asserts the result to T.
func Request[T any](l *Locator, uid UID) (T, error) {
	var zero T
	v, err := l.Request(uid)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("locator: uid %d instance is %T, not %T", uid, v, zero)
	}
	return t, nil
}

// Shutdown destroys every constructed service in the reverse order it was
// built, so a service is always torn down before the dependencies it was
// built from. Destructors run without the locator's lock held.
func (l *Locator) Shutdown() {
	l.mu.Lock()
	order := append([]UID{}, l.startOrder...)
	l.startOrder = nil
	l.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[order[i]]
		l.mu.Unlock()
		if e == nil || e.destructor == nil {
			continue
		}
		e.destructor(e.instance)
	}
}
