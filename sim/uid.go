package sim

import (
	"fmt"
	"math"
)

// ID identifies an item, a machine or a machine port.
// IDs are unique across all three kinds within one factory.
type ID uint32

// InvalidID is the unset sentinel. IDPool never hands it out.
const InvalidID ID = 0

// IDPool allocates monotonically increasing identifiers.
//
// The pool never recycles identifiers. Running past math.MaxUint32 is a
// numeric-range limitation of the ID type and panics.
type IDPool struct {
	next ID
}

// NewIDPool creates a pool whose first generated id is next (or 1 if next is InvalidID).
func NewIDPool(next ID) *IDPool {
	if next == InvalidID {
		next = 1
	}
	return &IDPool{next: next}
}

// Generate returns a fresh identifier.
func (p *IDPool) Generate() ID {
	if p.next == InvalidID {
		// wrapped around on the previous call
		panic(fmt.Sprintf("sim: identifier pool exhausted after %d ids", uint64(math.MaxUint32)))
	}
	id := p.next
	p.next++
	return id
}

// Next returns the id the next call to Generate will return.
// Persisted alongside a factory description so reloading does not reuse ids.
func (p *IDPool) Next() ID {
	return p.next
}

// Observe advances the pool past id so ids loaded from elsewhere are never generated again.
func (p *IDPool) Observe(id ID) {
	if p.next == InvalidID {
		return
	}
	if id == math.MaxUint32 {
		p.next = InvalidID
		return
	}
	if id >= p.next {
		p.next = id + 1
	}
}

// Available reports how many ids can still be generated.
func (p *IDPool) Available() uint64 {
	if p.next == InvalidID {
		return 0
	}
	return uint64(math.MaxUint32) - uint64(p.next) + 1
}
