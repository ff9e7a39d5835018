package bufferpool

// PageHandle is returned by Pin and aliases the frame slot's bytes for the
// lifetime of the pin. Using Bytes after the matching Unpin is a caller bug:
// the slice may be reassigned to a different page by a later Pin.
type PageHandle struct {
	PageID int32
	Bytes  []byte

	// slot caches the frame index at Pin time so Unpin/MarkDirty/ForcePage
	// don't need to repeat the page-table lookup. It is invalidated (not
	// trusted) if the slot's PageID no longer matches - see pool.go.
	slot int
}
