package vfs

// Iterator yields the children of a directory one at a time. Next returns
// io.EOF-equivalent termination by returning a nil Entry with a nil error;
// callers distinguish "no more entries" from failure by checking whether
// the returned error is non-nil.
//
// An Entry returned by Next is only valid until the following call to
// Next, Reset, or Deinit: backends are permitted to reuse the storage
// behind Entry.Basename across calls.
type Iterator interface {
	// Next advances to, and returns, the next entry. It returns (nil, nil)
	// once exhausted.
	Next() (*Entry, error)

	// Reset rewinds the iterator to its first entry.
	Reset() error

	// Deinit releases any resources held by the iterator itself. It does
	// not close the directory handle the iterator was created from.
	Deinit()
}
