package bufferpool

import "fmt"

// Policy is the name of a replacement policy, given to Init.
type Policy string

const (
	PolicyFIFO  Policy = "fifo"
	PolicyLRU   Policy = "lru"
	PolicyClock Policy = "clock"
)

// replacementPolicy is the contract shared by FIFO, LRU, and CLOCK:
// OnAdmit/OnHit update recency or reference metadata, SelectVictim picks a
// frame with FixCount == 0 to evict, or reports that none exists. It is
// dispatched once per Pin call.
type replacementPolicy interface {
	// OnAdmit is notified when slot becomes occupied, whether via a free
	// slot or via eviction of a previous occupant.
	OnAdmit(slot int)

	// OnHit is notified when a pin resolves against an already-resident
	// page in slot.
	OnHit(slot int)

	// SelectVictim chooses a frame with FixCount == 0 to evict. frames is
	// indexed by slot; the bool result is false if no unpinned frame
	// exists.
	SelectVictim(frames []*Frame) (int, bool)
}

func newPolicy(kind Policy, capacity int) (replacementPolicy, error) {
	switch kind {
	case PolicyFIFO:
		return newFIFOPolicy(), nil
	case PolicyLRU:
		return newLRUPolicy(), nil
	case PolicyClock:
		return newClockPolicy(capacity), nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidArgument, kind)
	}
}
