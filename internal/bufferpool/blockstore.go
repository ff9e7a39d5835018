package bufferpool

// FileHandle is an opaque reference to an open backing page file. Its
// concrete type is defined by whichever BlockStore produced it; callers
// never inspect it, only pass it back to the same store.
type FileHandle interface{}

// BlockStore is the storage-manager contract the pool consumes: fixed-size
// block I/O plus file extension. It is the pool's one external collaborator;
// this package ships two implementations (DiskBlockStore, MockBlockStore) so
// the pool is runnable and testable on its own.
type BlockStore interface {
	// OpenFile opens (creating if necessary) the named backing file and
	// returns a handle for subsequent calls.
	OpenFile(name string) (FileHandle, error)

	// CloseFile releases a handle obtained from OpenFile. Every mutating
	// pool operation that opens a handle must close it on every exit path,
	// including error exits.
	CloseFile(fh FileHandle) error

	// ReadBlock reads exactly PageSize bytes for pageID into buf. buf must
	// have length PageSize. Returns ErrReadNonExistingPage if pageID is
	// beyond the file's extent even after EnsureCapacity was attempted.
	ReadBlock(fh FileHandle, pageID int32, buf []byte) error

	// WriteBlock writes exactly PageSize bytes from buf to pageID. buf must
	// have length PageSize.
	WriteBlock(fh FileHandle, pageID int32, buf []byte) error

	// EnsureCapacity extends the file with zero-filled pages, if needed, so
	// it holds at least minPageCount pages.
	EnsureCapacity(fh FileHandle, minPageCount int32) error
}
