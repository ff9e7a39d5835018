package bufferpool

import "errors"

// Sentinel errors returned by the buffer manager. Callers should match on
// these with errors.Is; operations that wrap a lower-level BlockStore error
// do so with fmt.Errorf("bufferpool: <op>: %w", ...) so the original cause
// stays inspectable.
var (
	// ErrInvalidArgument covers a nil BlockStore, non-positive capacity, an
	// unrecognized policy name, a negative page id, a buffer that is not
	// PageSize bytes, or a FileHandle from a different store. A nil
	// *PageHandle is not rejected: Unpin, MarkDirty and ForcePage treat it
	// as a non-resident page and return nil. Methods called on a nil *Pool
	// are not checked.
	ErrInvalidArgument = errors.New("bufferpool: invalid argument")

	// ErrFileNotFound means the backing page file could not be opened.
	ErrFileNotFound = errors.New("bufferpool: page file not found")

	// ErrReadNonExistingPage means a read targeted a page beyond the file's
	// extent even after ensure_capacity was attempted.
	ErrReadNonExistingPage = errors.New("bufferpool: read of non-existing page")

	// ErrWriteFailed means the BlockStore rejected a block write.
	ErrWriteFailed = errors.New("bufferpool: write failed")

	// ErrPoolExhausted means every frame is pinned; no victim is
	// selectable.
	ErrPoolExhausted = errors.New("bufferpool: pool exhausted, all frames pinned")

	// ErrPinnedOnShutdown means Shutdown was called while at least one
	// frame still has a positive fix count. Shutdown refuses outright and
	// leaves the pool otherwise untouched.
	ErrPinnedOnShutdown = errors.New("bufferpool: shutdown requested with pinned frames outstanding")
)
