package globalobject

import (
	"errors"
	"fmt"
	"sync"
)

// Tag is a four-character pool tag.
type Tag uint32

// PoolTag is the tag destructor entries are charged to.
const PoolTag Tag = 'j'<<24 | 'b'<<16 | 'O'<<8 | 'G'

// String prints the tag in memory order, the way pool tag tools show it.
func (t Tag) String() string {
	b := []byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '.'
		}
	}
	return string(b)
}

// ErrPoolExhausted is returned when an allocation would exceed the pool limit.
var ErrPoolExhausted = errors.New("globalobject: pool exhausted")

// Allocator hands out tagged, accounted memory.
type Allocator interface {
	Allocate(tag Tag, size int) error
	Free(tag Tag, size int)
}

// TaggedPool is an Allocator with an optional byte limit. A zero limit means
// unlimited.
type TaggedPool struct {
	mu          sync.Mutex
	limit       int
	used        int
	outstanding map[Tag]int
}

// NewTaggedPool returns a pool that refuses allocations past limit bytes.
func NewTaggedPool(limit int) *TaggedPool {
	return &TaggedPool{limit: limit, outstanding: make(map[Tag]int)}
}

// Allocate charges size bytes to tag.
func (p *TaggedPool) Allocate(tag Tag, size int) error {
	if size <= 0 {
		return fmt.Errorf("globalobject: invalid allocation size %d", size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit > 0 && p.used+size > p.limit {
		return fmt.Errorf("%w: tag %s, %d of %d bytes in use", ErrPoolExhausted, tag, p.used, p.limit)
	}
	p.used += size
	p.outstanding[tag]++
	return nil
}

// Free releases size bytes charged to tag.
func (p *TaggedPool) Free(tag Tag, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.outstanding[tag] == 0 {
		panic(fmt.Sprintf("globalobject: free of tag %s with nothing outstanding", tag))
	}
	p.outstanding[tag]--
	p.used -= size
}

// Outstanding returns the number of live allocations charged to tag.
func (p *TaggedPool) Outstanding(tag Tag) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding[tag]
}

// InUse returns the number of bytes currently allocated.
func (p *TaggedPool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}
