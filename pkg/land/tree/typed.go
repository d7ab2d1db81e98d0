package tree

// TypedStorageTree is a type-safe facade over StorageTree. Go generics
// have no "void" type parameter the way the original's template allows
// (conditionally omitting a member via std::conditional_t); callers who
// don't need one of the four slots instantiate it with struct{} instead
// and ignore the zero value they get back — the untyped tree never
// treats any slot as special-cased absent.
type TypedStorageTree[ChunkShared, ChunkPrivate, DuoctreeShared, DuoctreePrivate any] struct {
	tree *StorageTree
	ctl  *Control
}

// NewTypedStorageTree creates an empty typed tree rooted at rootKey.
func NewTypedStorageTree[CS, CP, DS, DP any](rootKey ChunkKey) *TypedStorageTree[CS, CP, DS, DP] {
	return &TypedStorageTree[CS, CP, DS, DP]{
		tree: New(rootKey),
		ctl: &Control{
			NewChunkData:    func(ChunkKey) any { var z CS; return z },
			NewDuoctreeData: func(ChunkKey) any { var z DS; return z },
		},
	}
}

// Lookup returns key's shared/private data and version.
func (t *TypedStorageTree[CS, CP, DS, DP]) Lookup(key ChunkKey) (shared CS, private CP, version uint64, ok bool) {
	s, p, v, found := t.tree.Lookup(key)
	if !found {
		return shared, private, 0, false
	}
	if s != nil {
		shared = s.(CS)
	}
	if p != nil {
		private = p.(CP)
	}
	return shared, private, v, true
}

// Set writes key's shared/private data at the given version, creating
// the node (and its ancestors) if necessary.
func (t *TypedStorageTree[CS, CP, DS, DP]) Set(key ChunkKey, version uint64, shared CS, private CP) {
	t.tree.SetVersion(key, version, shared, private, t.ctl)
}

// ChunkCopier rebuilds a LOD0 node's shared data from the destination's
// previous value (if any) and the source's current value.
type ChunkCopier[CS any] func(key ChunkKey, oldVersion, newVersion uint64, dstShared *CS, srcShared CS)

// DuoctreeCopier rebuilds a LOD>0 node's shared data the same way.
type DuoctreeCopier[DS any] func(key ChunkKey, oldVersion, newVersion uint64, dstShared *DS, srcShared DS)

// CopyFrom brings t up to date with other, sharing unchanged subtrees
// by pointer and invoking the given copiers for nodes whose version
// changed. Private data always moves automatically; these copiers only
// ever see shared data.
func (t *TypedStorageTree[CS, CP, DS, DP]) CopyFrom(
	other *TypedStorageTree[CS, CP, DS, DP],
	copyChunk ChunkCopier[CS],
	copyDuoctree DuoctreeCopier[DS],
) {
	ctl := &Control{
		NewChunkData:    t.ctl.NewChunkData,
		NewDuoctreeData: t.ctl.NewDuoctreeData,
		CopyChunkData: func(key ChunkKey, oldVersion, newVersion uint64, dstShared *any, srcShared any) {
			if copyChunk == nil {
				*dstShared = srcShared
				return
			}
			var dst CS
			if *dstShared != nil {
				dst = (*dstShared).(CS)
			}
			var src CS
			if srcShared != nil {
				src = srcShared.(CS)
			}
			copyChunk(key, oldVersion, newVersion, &dst, src)
			*dstShared = dst
		},
		CopyDuoctreeData: func(key ChunkKey, oldVersion, newVersion uint64, dstShared *any, srcShared any) {
			if copyDuoctree == nil {
				*dstShared = srcShared
				return
			}
			var dst DS
			if *dstShared != nil {
				dst = (*dstShared).(DS)
			}
			var src DS
			if srcShared != nil {
				src = srcShared.(DS)
			}
			copyDuoctree(key, oldVersion, newVersion, &dst, src)
			*dstShared = dst
		},
	}
	t.tree.CopyFrom(other.tree, ctl)
}
