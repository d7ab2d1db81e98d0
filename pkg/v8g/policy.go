package v8g

// Policy selects how a container's values move when a mutable container
// is copied into an immutable snapshot. It is the Go lowering of the
// original's storage-policy template parameter
// (V8gStoragePolicy::{Immutable,Copyable,DmgCopyable,Shared}).
type Policy int

const (
	// Copyable deep-copies each changed value when snapshotting; unchanged
	// values are reused by pointer. This is the default and safest policy:
	// the mutable container remains fully usable afterwards.
	Copyable Policy = iota

	// DmgCopyable allows the snapshot constructor to move ("damage") parts
	// of a changed mutable value into the new immutable copy instead of
	// deep-copying it, trading a fully-usable mutable source for a cheaper
	// snapshot. Safe only when every snapshot is immediately followed by a
	// rebuild of the mutable value before it's read again — callers opting
	// into this must always pass the previous snapshot so unmodified parts
	// can still be recovered from it.
	DmgCopyable

	// Shared never deep-copies: values are shared by pointer between the
	// mutable container and every snapshot taken from it. Values must
	// never be mutated in place after insertion under this policy.
	Shared
)
