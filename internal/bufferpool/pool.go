// Package bufferpool implements a fixed-size in-memory cache of fixed-size
// disk pages: the pin/unpin protocol, three interchangeable replacement
// policies (FIFO, LRU, CLOCK), and dirty-page write-back, sitting on top of
// a pluggable BlockStore.
package bufferpool

import (
	"fmt"
	"log/slog"
	"sync"
)

// Pool is the buffer pool descriptor. It owns a fixed frame table, the
// replacement policy's metadata, and the I/O counters. All exported methods
// are safe to call from a single goroutine at a time; Pool is guarded by a
// coarse mutex as a defensive measure, not because the design relies on
// concurrent callers.
type Pool struct {
	mu sync.Mutex

	pageFile string
	capacity int
	policy   replacementPolicy
	kind     Policy

	store  BlockStore
	handle FileHandle

	frames    []*Frame
	pageTable map[int32]int
	occupied  int

	readIO  uint64
	writeIO uint64

	closed bool
}

// Init allocates a new Pool: capacity frames, the named replacement
// policy, backed by store and the page file named pageFile. The backing
// file handle is opened once here and kept for the pool's lifetime, and is
// only closed by Shutdown.
func Init(store BlockStore, pageFile string, capacity int, policy Policy) (*Pool, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil BlockStore", ErrInvalidArgument)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}

	pol, err := newPolicy(policy, capacity)
	if err != nil {
		return nil, err
	}

	handle, err := store.OpenFile(pageFile)
	if err != nil {
		return nil, err
	}

	frames := make([]*Frame, capacity)
	for i := range frames {
		frames[i] = newFrame(i)
	}

	slog.Debug("bufferpool: init", "component", "bufferpool", "page_file", pageFile, "capacity", capacity, "policy", policy)

	return &Pool{
		pageFile:  pageFile,
		capacity:  capacity,
		policy:    pol,
		kind:      policy,
		store:     store,
		handle:    handle,
		frames:    frames,
		pageTable: map[int32]int{},
	}, nil
}

// Pin resolves pageID to a frame, loading it from the backing store if
// necessary, and returns a handle aliasing the frame's bytes. The caller
// must call Unpin exactly once per successful Pin.
func (p *Pool) Pin(pageID int32) (*PageHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("bufferpool: pin: pool is shut down")
	}
	if pageID < 0 {
		return nil, fmt.Errorf("%w: page id must be non-negative, got %d", ErrInvalidArgument, pageID)
	}

	if slot, ok := p.pageTable[pageID]; ok {
		f := p.frames[slot]
		f.FixCount++
		f.ReferenceBit = true
		p.policy.OnHit(slot)
		slog.Debug("bufferpool: pin hit", "component", "bufferpool", "page_id", pageID, "slot", slot, "fix_count", f.FixCount)
		return &PageHandle{PageID: pageID, Bytes: f.Bytes, slot: slot}, nil
	}

	var slot int
	if p.occupied < p.capacity {
		slot = p.freeSlot()
	} else {
		victim, ok := p.policy.SelectVictim(p.frames)
		if !ok {
			slog.Debug("bufferpool: pin exhausted", "component", "bufferpool", "page_id", pageID)
			return nil, ErrPoolExhausted
		}
		if err := p.evict(victim); err != nil {
			return nil, err
		}
		slot = victim
	}

	f := p.frames[slot]
	if err := p.store.EnsureCapacity(p.handle, pageID+1); err != nil {
		return nil, fmt.Errorf("bufferpool: pin %d: %w", pageID, err)
	}
	if err := p.store.ReadBlock(p.handle, pageID, f.Bytes); err != nil {
		slog.Error("bufferpool: pin read failed", "component", "bufferpool", "page_id", pageID, "err", err)
		return nil, fmt.Errorf("bufferpool: pin %d: %w", pageID, err)
	}

	f.PageID = pageID
	f.Dirty = false
	f.FixCount = 1
	f.ReferenceBit = true
	p.pageTable[pageID] = slot
	p.occupied++
	p.readIO++
	p.policy.OnAdmit(slot)

	slog.Debug("bufferpool: pin admit", "component", "bufferpool", "page_id", pageID, "slot", slot)
	return &PageHandle{PageID: pageID, Bytes: f.Bytes, slot: slot}, nil
}

// freeSlot returns the index of an empty frame. The caller must have
// already verified occupied < capacity.
func (p *Pool) freeSlot() int {
	for _, f := range p.frames {
		if f.empty() {
			return f.SlotIndex
		}
	}
	panic("bufferpool: invariant violated: no free slot despite occupied < capacity")
}

// evict writes back slot's frame if dirty and marks the slot empty. If the
// write-back fails, the frame is left untouched - original page id still
// resident, dirty still set - so a later pin can retry.
func (p *Pool) evict(slot int) error {
	f := p.frames[slot]

	if f.Dirty {
		if err := p.store.EnsureCapacity(p.handle, f.PageID+1); err != nil {
			return fmt.Errorf("bufferpool: evict page %d: %w", f.PageID, err)
		}
		if err := p.store.WriteBlock(p.handle, f.PageID, f.Bytes); err != nil {
			slog.Error("bufferpool: evict write-back failed", "component", "bufferpool", "page_id", f.PageID, "err", err)
			return fmt.Errorf("bufferpool: evict page %d: %w", f.PageID, err)
		}
		p.writeIO++
		f.Dirty = false
	}

	slog.Debug("bufferpool: evict", "component", "bufferpool", "page_id", f.PageID, "slot", slot)

	delete(p.pageTable, f.PageID)
	p.occupied--
	f.PageID = NoPage
	f.FixCount = 0
	f.ReferenceBit = false
	return nil
}

// resolve finds the frame for h, preferring the slot cached on the handle
// at Pin time and falling back to the page table if that slot has since
// been reassigned to a different page (which only happens after the
// caller's matching Unpin, i.e. caller misuse).
func (p *Pool) resolve(h *PageHandle) (*Frame, bool) {
	if h == nil {
		return nil, false
	}
	if h.slot >= 0 && h.slot < len(p.frames) && p.frames[h.slot].PageID == h.PageID {
		return p.frames[h.slot], true
	}
	slot, ok := p.pageTable[h.PageID]
	if !ok {
		return nil, false
	}
	return p.frames[slot], true
}

// Unpin releases one reservation on h's page. Unpinning a page that is not
// resident, or unpinning more times than pinned, is a caller bug; both are
// tolerated silently (the latter is logged and clamped at zero) rather than
// treated as a recoverable error.
func (p *Pool) Unpin(h *PageHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.resolve(h)
	if !ok {
		slog.Debug("bufferpool: unpin ignored, page not resident", "component", "bufferpool", "page_id", handlePageID(h))
		return nil
	}
	if f.FixCount == 0 {
		slog.Error("bufferpool: unpin underflow", "component", "bufferpool", "page_id", f.PageID)
		return nil
	}
	f.FixCount--
	return nil
}

// MarkDirty marks h's page as modified. No-op if the page is not resident.
func (p *Pool) MarkDirty(h *PageHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.resolve(h)
	if !ok {
		slog.Debug("bufferpool: mark_dirty ignored, page not resident", "component", "bufferpool", "page_id", handlePageID(h))
		return nil
	}
	f.Dirty = true
	return nil
}

// ForcePage writes h's page back to disk immediately if dirty, regardless
// of fix count. No-op if not dirty or not resident.
func (p *Pool) ForcePage(h *PageHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.resolve(h)
	if !ok || !f.Dirty {
		return nil
	}
	return p.writeBack(f)
}

// ForceFlush writes back every dirty, unpinned frame. Pinned dirty frames
// are skipped. A second consecutive call performs zero writes.
func (p *Pool) ForceFlush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forceFlushLocked()
}

func (p *Pool) forceFlushLocked() error {
	slog.Debug("bufferpool: force_flush", "component", "bufferpool")
	for _, f := range p.frames {
		if f.Dirty && f.FixCount == 0 {
			if err := p.writeBack(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pool) writeBack(f *Frame) error {
	if err := p.store.EnsureCapacity(p.handle, f.PageID+1); err != nil {
		return fmt.Errorf("bufferpool: flush page %d: %w", f.PageID, err)
	}
	if err := p.store.WriteBlock(p.handle, f.PageID, f.Bytes); err != nil {
		slog.Error("bufferpool: flush write failed", "component", "bufferpool", "page_id", f.PageID, "err", err)
		return fmt.Errorf("bufferpool: flush page %d: %w", f.PageID, err)
	}
	p.writeIO++
	f.Dirty = false
	return nil
}

// Shutdown force-flushes, releases the pool's frames and policy state, and
// closes the backing file handle. If any frame is still pinned, Shutdown
// refuses with ErrPinnedOnShutdown and leaves the pool otherwise untouched.
// After a successful Shutdown the pool is unusable.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	for _, f := range p.frames {
		if f.FixCount > 0 {
			return ErrPinnedOnShutdown
		}
	}

	if err := p.forceFlushLocked(); err != nil {
		return err
	}
	if err := p.store.CloseFile(p.handle); err != nil {
		return err
	}

	slog.Debug("bufferpool: shutdown", "component", "bufferpool")

	p.frames = nil
	p.pageTable = nil
	p.policy = nil
	p.closed = true
	return nil
}

func handlePageID(h *PageHandle) int32 {
	if h == nil {
		return NoPage
	}
	return h.PageID
}
