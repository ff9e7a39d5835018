package bufferpool

// PageSize is the fixed size, in bytes, of every page the pool manages.
const PageSize = 4096

// NoPage is the sentinel page id used by an empty frame slot.
const NoPage int32 = -1
