package tree

// Control supplies the per-level lifecycle hooks a StorageTree needs
// but can't know on its own, since node payloads are untyped (any):
// how to build a brand-new node's data, and how to rebuild a changed
// node's shared data during CopyFrom. Chunk-level (LOD0) and
// duoctree-level (LOD>0) nodes get independent hooks, matching the
// original's separate chunk/duoctree user-data control blocks.
type Control struct {
	NewChunkData    func(key ChunkKey) any
	NewDuoctreeData func(key ChunkKey) any

	// CopyChunkData/CopyDuoctreeData run when CopyFrom finds a node
	// whose version changed. dstShared holds the destination's previous
	// shared value for this key (nil if the node didn't exist there
	// yet) and must be overwritten with the new value to keep; srcShared
	// is the source's current shared value. Private data is always moved
	// automatically and needs no hook.
	CopyChunkData    func(key ChunkKey, oldVersion, newVersion uint64, dstShared *any, srcShared any)
	CopyDuoctreeData func(key ChunkKey, oldVersion, newVersion uint64, dstShared *any, srcShared any)
}

func (c *Control) newData(key ChunkKey) any {
	if key.Lod == 0 {
		if c.NewChunkData != nil {
			return c.NewChunkData(key)
		}
		return nil
	}
	if c.NewDuoctreeData != nil {
		return c.NewDuoctreeData(key)
	}
	return nil
}

func (c *Control) copyData(key ChunkKey, oldVersion, newVersion uint64, dstShared *any, srcShared any) {
	fn := c.CopyDuoctreeData
	if key.Lod == 0 {
		fn = c.CopyChunkData
	}
	if fn != nil {
		fn(key, oldVersion, newVersion, dstShared, srcShared)
	}
}

// node is one tree node: a chunk leaf (Lod == 0) or a duoctree interior
// node (Lod > 0, up to 8 children). Shared is refcount-shared the Go
// way — by holding the same pointer/value across two StorageTrees
// rather than by an explicit refcount — so CopyFrom's "share unchanged
// subtrees" behavior is simply reusing the same *node.
type node struct {
	version  uint64
	shared   any
	private  any
	isLeaf   bool
	children [8]*node
}

// StorageTree is a hierarchical, chunk-key-indexed container rooted at
// a fixed key covering the whole addressable world. Lookup descends
// from the root choosing a child octant per level (MSB-first on the
// key's coordinate bits, i.e. coarsest distinction first).
type StorageTree struct {
	rootKey ChunkKey
	root    *node
}

// New creates an empty tree rooted at rootKey, the coarsest LOD the
// tree will ever hold data for.
func New(rootKey ChunkKey) *StorageTree {
	return &StorageTree{rootKey: rootKey}
}

func (t *StorageTree) find(key ChunkKey) *node {
	if key.Lod > t.rootKey.Lod {
		return nil
	}
	cur := t.root
	curKey := t.rootKey
	for cur != nil && curKey.Lod > key.Lod {
		childKey := ancestorAt(key, curKey.Lod-1)
		cur = cur.children[octantOf(childKey, curKey)]
		curKey = childKey
	}
	return cur
}

// Lookup returns key's shared/private data and version, or ok=false if
// no node has ever been created at that key.
func (t *StorageTree) Lookup(key ChunkKey) (shared, private any, version uint64, ok bool) {
	n := t.find(key)
	if n == nil {
		return nil, nil, 0, false
	}
	return n.shared, n.private, n.version, true
}

// GetOrCreate makes sure key's node exists, building it (and every
// ancestor node on the path from the root) via ctl's constructors if it
// doesn't exist yet. It returns nothing; an existing node keeps its
// version and a brand-new node starts at 0 — callers bump it themselves
// after writing.
func (t *StorageTree) GetOrCreate(key ChunkKey, ctl *Control) {
	if key.Lod > t.rootKey.Lod {
		panic("tree: key LOD above tree root LOD")
	}
	if t.root == nil {
		t.root = &node{isLeaf: t.rootKey.Lod == 0, shared: ctl.newData(t.rootKey)}
	}
	cur := t.root
	curKey := t.rootKey
	for curKey.Lod > key.Lod {
		childKey := ancestorAt(key, curKey.Lod-1)
		octant := octantOf(childKey, curKey)
		if cur.children[octant] == nil {
			cur.children[octant] = &node{isLeaf: childKey.Lod == 0, shared: ctl.newData(childKey)}
		}
		cur = cur.children[octant]
		curKey = childKey
	}
}

// SetVersion bumps key's node version and data after a write, creating
// the node (and its ancestors) first if necessary. version must be
// greater than any version previously passed to SetVersion on this
// tree: it is stamped onto every ancestor on the path from the root as
// well as the node itself, so CopyFrom's "version unchanged => skip
// subtree" shortcut always sees a changed ancestor version when
// anything beneath it changed.
func (t *StorageTree) SetVersion(key ChunkKey, version uint64, shared, private any, ctl *Control) {
	t.GetOrCreate(key, ctl)

	cur := t.root
	curKey := t.rootKey
	for {
		cur.version = version
		if curKey == key {
			break
		}
		childKey := ancestorAt(key, curKey.Lod-1)
		cur = cur.children[octantOf(childKey, curKey)]
		curKey = childKey
	}
	cur.shared = shared
	cur.private = private
}

// CopyFrom rebuilds t to match other's current content: subtrees whose
// version is unchanged at t's existing node are shared by pointer with
// no recursion or copier call; subtrees that are new or whose version
// changed are rebuilt node-by-node, invoking ctl's copy hook for shared
// data and moving private data out of other's node into t's.
func (t *StorageTree) CopyFrom(other *StorageTree, ctl *Control) {
	t.rootKey = other.rootKey
	t.root = copyNode(t.root, other.root, other.rootKey, ctl)
}

func copyNode(dst, src *node, key ChunkKey, ctl *Control) *node {
	if src == nil {
		return nil
	}
	if dst != nil && dst.version == src.version {
		return dst
	}

	var oldVersion uint64
	var dstShared any
	if dst != nil {
		oldVersion = dst.version
		dstShared = dst.shared
	}

	ctl.copyData(key, oldVersion, src.version, &dstShared, src.shared)

	out := &node{
		version: src.version,
		shared:  dstShared,
		private: src.private, // moved: src no longer owns it
		isLeaf:  src.isLeaf,
	}
	src.private = nil

	if !src.isLeaf {
		for i := 0; i < 8; i++ {
			var dstChild *node
			if dst != nil {
				dstChild = dst.children[i]
			}
			out.children[i] = copyNode(dstChild, src.children[i], key.Child(i), ctl)
		}
	}
	return out
}
