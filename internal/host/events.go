package host

import "sync"

// EventKind identifies a class of host notification.
type EventKind int

const (
	// EventPower carries a PowerState.
	EventPower EventKind = iota
	// EventProcessorAdded carries the index of the new processor as an int.
	EventProcessorAdded
)

func (k EventKind) String() string {
	switch k {
	case EventPower:
		return "power"
	case EventProcessorAdded:
		return "processor-added"
	default:
		return "unknown"
	}
}

// PowerState is the payload of an EventPower notification.
type PowerState int

const (
	PowerSleep PowerState = iota
	PowerResume
)

func (s PowerState) String() string {
	if s == PowerSleep {
		return "sleep"
	}
	return "resume"
}

// Handler receives one notification.
type Handler func(payload any)

type subscription struct {
	kind EventKind
	fn   Handler
}

// Bus delivers host notifications to registered callbacks. Handlers run
// synchronously on the publishing goroutine, in registration order.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]subscription
	ids  []uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]subscription)}
}

// Subscribe registers fn for kind and returns a func that removes it.
func (b *Bus) Subscribe(kind EventKind, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = subscription{kind: kind, fn: fn}
	b.ids = append(b.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
	for i, v := range b.ids {
		if v == id {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)
			break
		}
	}
}

// Publish delivers payload to every handler subscribed to kind and returns
// the number of handlers invoked.
func (b *Bus) Publish(kind EventKind, payload any) int {
	b.mu.RLock()
	var fns []Handler
	for _, id := range b.ids {
		if s := b.subs[id]; s.kind == kind {
			fns = append(fns, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(payload)
	}
	return len(fns)
}

// Subscribers returns the number of handlers registered for kind.
func (b *Bus) Subscribers(kind EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs {
		if s.kind == kind {
			n++
		}
	}
	return n
}
