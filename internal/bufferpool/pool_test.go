package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, capacity int, policy Policy) *Pool {
	t.Helper()
	store := NewMockBlockStore()
	pool, err := Init(store, "test-pages", capacity, policy)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, f := range pool.FixCounts() {
			if f > 0 {
				return // outstanding pins: Shutdown would refuse, so skip it
			}
		}
		_ = pool.Shutdown()
	})
	return pool
}

func pin(t *testing.T, p *Pool, pageID int32) *PageHandle {
	t.Helper()
	h, err := p.Pin(pageID)
	require.NoError(t, err)
	return h
}

// Scenario 1: FIFO eviction order.
func TestScenario_FIFOEvictionOrder(t *testing.T) {
	p := newTestPool(t, 3, PolicyFIFO)

	h1 := pin(t, p, 1)
	h2 := pin(t, p, 2)
	h3 := pin(t, p, 3)
	require.NoError(t, p.Unpin(h1))
	require.NoError(t, p.Unpin(h2))
	require.NoError(t, p.Unpin(h3))

	pin(t, p, 4)

	assert.Equal(t, []int32{4, 2, 3}, p.FrameContents())
	assert.EqualValues(t, 4, p.NumReadIO())
	assert.EqualValues(t, 0, p.NumWriteIO())
}

// Scenario 2: LRU preserves recent use.
func TestScenario_LRUPreservesRecentUse(t *testing.T) {
	p := newTestPool(t, 3, PolicyLRU)

	h1 := pin(t, p, 1)
	h2 := pin(t, p, 2)
	h3 := pin(t, p, 3)
	require.NoError(t, p.Unpin(h1))
	require.NoError(t, p.Unpin(h2))
	require.NoError(t, p.Unpin(h3))

	pin(t, p, 1) // hit, re-pins page 1

	pin(t, p, 4)

	assert.Equal(t, []int32{1, 4, 3}, p.FrameContents())
	assert.EqualValues(t, 4, p.NumReadIO())
	assert.EqualValues(t, 0, p.NumWriteIO())
}

// Scenario 3: CLOCK second chance.
func TestScenario_ClockSecondChance(t *testing.T) {
	p := newTestPool(t, 3, PolicyClock)

	h1 := pin(t, p, 1)
	h2 := pin(t, p, 2)
	h3 := pin(t, p, 3)
	require.NoError(t, p.Unpin(h1))
	require.NoError(t, p.Unpin(h2))
	require.NoError(t, p.Unpin(h3))

	pin(t, p, 1) // hit, sets reference bit, leaves page 1 pinned

	pin(t, p, 4)

	assert.Equal(t, []int32{1, 4, 3}, p.FrameContents())
	assert.EqualValues(t, 4, p.NumReadIO())
	assert.EqualValues(t, 0, p.NumWriteIO())
}

// Scenario 4: dirty write-back on eviction.
func TestScenario_DirtyWriteBackOnEviction(t *testing.T) {
	p := newTestPool(t, 1, PolicyLRU)

	h0 := pin(t, p, 0)
	require.NoError(t, p.MarkDirty(h0))
	require.NoError(t, p.Unpin(h0))

	pin(t, p, 1)

	assert.EqualValues(t, 1, p.NumWriteIO())
	assert.EqualValues(t, 2, p.NumReadIO())
}

// Scenario 5: a pinned frame is never evicted; the pool reports exhaustion
// instead, and frame state is unchanged.
func TestScenario_PinnedFrameNotEvicted(t *testing.T) {
	p := newTestPool(t, 2, PolicyLRU)

	pin(t, p, 0)
	pin(t, p, 1)

	_, err := p.Pin(2)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	assert.ElementsMatch(t, []int32{0, 1}, p.FrameContents())
	assert.EqualValues(t, 2, p.NumReadIO())
	assert.EqualValues(t, 0, p.NumWriteIO())
}

// Scenario 6: force-flush writes every dirty unpinned frame and skips
// pinned ones.
func TestScenario_ForceFlushWritesDirtyUnpinned(t *testing.T) {
	p := newTestPool(t, 3, PolicyLRU)

	h0 := pin(t, p, 0)
	h1 := pin(t, p, 1)
	h2 := pin(t, p, 2)
	require.NoError(t, p.MarkDirty(h0))
	require.NoError(t, p.MarkDirty(h1))
	require.NoError(t, p.MarkDirty(h2))
	require.NoError(t, p.Unpin(h0))
	require.NoError(t, p.Unpin(h1))
	// page 2 stays pinned

	require.NoError(t, p.ForceFlush())

	assert.EqualValues(t, 2, p.NumWriteIO())
	assert.Equal(t, []bool{false, false, true}, p.DirtyFlags())

	require.NoError(t, p.Unpin(h2))
}

func TestForceFlushTwiceIsIdempotent(t *testing.T) {
	p := newTestPool(t, 2, PolicyLRU)
	h0 := pin(t, p, 0)
	require.NoError(t, p.MarkDirty(h0))
	require.NoError(t, p.Unpin(h0))

	require.NoError(t, p.ForceFlush())
	assert.EqualValues(t, 1, p.NumWriteIO())

	require.NoError(t, p.ForceFlush())
	assert.EqualValues(t, 1, p.NumWriteIO(), "second consecutive flush performs zero writes")
}

func TestMarkDirtyIsIdempotent(t *testing.T) {
	p := newTestPool(t, 1, PolicyLRU)
	h := pin(t, p, 0)
	require.NoError(t, p.MarkDirty(h))
	require.NoError(t, p.MarkDirty(h))
	assert.Equal(t, []bool{true}, p.DirtyFlags())
}

func TestRepinWithoutEvictionSkipsIO(t *testing.T) {
	p := newTestPool(t, 2, PolicyLRU)
	h := pin(t, p, 0)
	require.NoError(t, p.Unpin(h))
	assert.EqualValues(t, 1, p.NumReadIO())

	h2 := pin(t, p, 0)
	assert.EqualValues(t, 1, p.NumReadIO(), "re-pinning a still-resident page performs no I/O")
	assert.Equal(t, h.Bytes, h2.Bytes)
	require.NoError(t, p.Unpin(h2))
}

func TestPinUnpinBalanceLeavesZeroFixCounts(t *testing.T) {
	p := newTestPool(t, 3, PolicyFIFO)
	for i := int32(0); i < 3; i++ {
		h := pin(t, p, i)
		require.NoError(t, p.Unpin(h))
	}
	for _, fc := range p.FixCounts() {
		assert.Equal(t, 0, fc)
	}
}

func TestSnapshotsHaveCapacityLength(t *testing.T) {
	p := newTestPool(t, 5, PolicyLRU)
	assert.Len(t, p.FrameContents(), 5)
	assert.Len(t, p.DirtyFlags(), 5)
	assert.Len(t, p.FixCounts(), 5)
}

func TestNoDuplicatePageIDsAcrossSlots(t *testing.T) {
	p := newTestPool(t, 3, PolicyLRU)
	h0 := pin(t, p, 0)
	h1 := pin(t, p, 1)
	require.NoError(t, p.Unpin(h0))
	require.NoError(t, p.Unpin(h1))
	pin(t, p, 0) // re-pin; must hit, not create a second slot for page 0

	seen := map[int32]bool{}
	for _, id := range p.FrameContents() {
		if id == NoPage {
			continue
		}
		assert.False(t, seen[id], "page %d resident in more than one slot", id)
		seen[id] = true
	}
}

func TestShutdownRefusesWithOutstandingPins(t *testing.T) {
	store := NewMockBlockStore()
	p, err := Init(store, "shutdown-test", 2, PolicyLRU)
	require.NoError(t, err)

	pin(t, p, 0) // never unpinned

	err = p.Shutdown()
	assert.ErrorIs(t, err, ErrPinnedOnShutdown)

	// Pool must remain usable after a refused shutdown.
	assert.EqualValues(t, 1, p.NumReadIO())
	assert.Equal(t, []int32{0, NoPage}, p.FrameContents())
}

func TestShutdownFlushesDirtyUnpinnedFrames(t *testing.T) {
	store := NewMockBlockStore()
	p, err := Init(store, "shutdown-flush-test", 2, PolicyLRU)
	require.NoError(t, err)

	h := pin(t, p, 0)
	require.NoError(t, p.MarkDirty(h))
	require.NoError(t, p.Unpin(h))

	require.NoError(t, p.Shutdown())
	assert.EqualValues(t, 1, p.NumWriteIO())
}

func TestUnpinUnknownPageIsTolerated(t *testing.T) {
	p := newTestPool(t, 2, PolicyLRU)
	assert.NoError(t, p.Unpin(&PageHandle{PageID: 99, slot: -1}))
}

func TestInitRejectsInvalidArguments(t *testing.T) {
	store := NewMockBlockStore()

	_, err := Init(store, "x", 0, PolicyLRU)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Init(nil, "x", 4, PolicyLRU)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Init(store, "x", 4, Policy("unknown"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
