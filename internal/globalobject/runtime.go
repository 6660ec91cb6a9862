package globalobject

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"
)

// Destructor releases one statically-declared object.
type Destructor func()

type destructorEntry struct {
	name string
	dtor Destructor
}

// destructorEntrySize is what one registration costs the allocator.
const destructorEntrySize = int(unsafe.Sizeof(destructorEntry{}))

var (
	ErrAlreadyConstructed = errors.New("globalobject: constructors already ran")
	ErrNotConstructing    = errors.New("globalobject: destructor registered outside the constructor phase")
	ErrNilDestructor      = errors.New("globalobject: nil destructor")
)

type phase int

const (
	phaseIdle phase = iota
	phaseConstructing
	phaseConstructed
)

// Runtime holds the constructor table and destructor registry for one
// module instance.
type Runtime struct {
	mu      sync.Mutex
	ctors   []Entry
	dtors   []destructorEntry
	alloc   Allocator
	log     zerolog.Logger
	phase   phase
	current string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithAllocator charges destructor entries to a.
func WithAllocator(a Allocator) Option {
	return func(rt *Runtime) { rt.alloc = a }
}

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(rt *Runtime) { rt.log = l }
}

// New returns a Runtime over ctors. Without WithAllocator an unlimited
// TaggedPool is used.
func New(ctors []Entry, opts ...Option) *Runtime {
	rt := &Runtime{
		ctors: ctors,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.alloc == nil {
		rt.alloc = NewTaggedPool(0)
	}
	return rt
}

// RunConstructors invokes every constructor once, in table order.
func (rt *Runtime) RunConstructors() error {
	rt.mu.Lock()
	if rt.phase != phaseIdle {
		rt.mu.Unlock()
		return ErrAlreadyConstructed
	}
	rt.phase = phaseConstructing
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.phase = phaseConstructed
		rt.current = ""
		rt.mu.Unlock()
	}()

	for _, e := range rt.ctors {
		rt.mu.Lock()
		rt.current = e.Name
		rt.mu.Unlock()

		e.Fn(rt)
	}
	rt.log.Debug().Int("constructors", len(rt.ctors)).Int("destructors", rt.Pending()).Msg("global objects constructed")
	return nil
}

// AtExit registers d to run at unload. Destructors run in reverse order of
// registration. On failure d is not registered.
func (rt *Runtime) AtExit(d Destructor) error {
	if d == nil {
		return ErrNilDestructor
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.phase != phaseConstructing {
		return ErrNotConstructing
	}
	if err := rt.alloc.Allocate(PoolTag, destructorEntrySize); err != nil {
		rt.log.Warn().Err(err).Str("object", rt.current).Msg("destructor not registered")
		return fmt.Errorf("register destructor for %s: %w", rt.current, err)
	}
	rt.dtors = append(rt.dtors, destructorEntry{name: rt.current, dtor: d})
	return nil
}

// RunDestructors pops and invokes every registered destructor, most recent
// first, releasing each entry once it has run.
func (rt *Runtime) RunDestructors() {
	for {
		rt.mu.Lock()
		n := len(rt.dtors)
		if n == 0 {
			rt.mu.Unlock()
			return
		}
		e := rt.dtors[n-1]
		rt.dtors[n-1] = destructorEntry{}
		rt.dtors = rt.dtors[:n-1]
		rt.mu.Unlock()

		e.dtor()
		rt.alloc.Free(PoolTag, destructorEntrySize)
		rt.log.Debug().Str("object", e.name).Msg("global object destroyed")
	}
}

// Pending returns the number of registered destructors not yet run.
func (rt *Runtime) Pending() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.dtors)
}
