package lod

import "github.com/svenny-voxen/voxen-go/pkg/land/tree"

// seamNode pairs a control block with the key it was found at, since
// getSubNodes needs the key to look up that block's own children. A nil
// *seamNode means "no chunk here" (crossing an unloaded neighbor or a
// superchunk boundary), matching the original's null ChunkControlBlock*.
type seamNode struct {
	key tree.ChunkKey
	b   *ControlBlock
}

func canProceedPhase1(nodes []*seamNode) bool {
	for _, n := range nodes {
		if n == nil {
			return false
		}
	}
	for _, n := range nodes[1:] {
		if n.b.ChunkChanged {
			return true
		}
	}
	return false
}

func canProceedPhase2(nodes []*seamNode) bool {
	for _, n := range nodes {
		if n == nil {
			return false
		}
	}
	// Only nodes[0]'s seam gets rebuilt, so only its flag matters here.
	return nodes[0].b.InducedSeamDirty
}

// childSeamNode returns parent's child at octant, or nil if that child
// isn't currently tracked (caller must hold c.mu).
func (c *Controller) childSeamNode(parent *seamNode, octant int) *seamNode {
	key := parent.key.Child(octant)
	b, ok := c.blocks[key]
	if !ok {
		return nil
	}
	return &seamNode{key: key, b: b}
}

// getSubNodes resolves the 8 nodes a recursive edge/face proc call needs
// from the 2 or 4 parent nodes, per table (edgeProcRecursionTable or
// faceProcRecursionTable): a parent contributes its own child if it's
// not Active and has one, else it contributes itself (mirroring
// getSubNodes in controller_seam_ops.cpp). Reports whether any parent
// actually contributed a child, since "no children anywhere" is the
// recursion's base case.
func (c *Controller) getSubNodes(nodes []*seamNode, table [8][2]int) (sub [8]*seamNode, hasChildren bool) {
	for i := 0; i < 8; i++ {
		parent := nodes[table[i][0]]
		child := c.childSeamNode(parent, table[i][1])
		if parent.b.State == Active || child == nil {
			sub[i] = parent
		} else {
			sub[i] = child
			hasChildren = true
		}
	}
	return sub, hasChildren
}

func needRebuildSeam(node *seamNode) bool {
	return node.b.State == Active && !node.b.Surfaceless
}

// seamEdgeProcPhase1 propagates induced_seam_dirty upward across the 4
// chunks sharing an edge along axis, recursing into finer LOD where any
// of the 3 non-primary chunks changed this tick.
func (c *Controller) seamEdgeProcPhase1(axis int, nodes [4]*seamNode) {
	if !canProceedPhase1(nodes[:]) {
		return
	}

	sub, hasChildren := c.getSubNodes(nodes[:], edgeProcRecursionTable[axis])
	if !hasChildren {
		if needRebuildSeam(nodes[0]) {
			nodes[0].b.InducedSeamDirty = true
		}
		return
	}

	for _, quad := range subedgeSharingTable[axis] {
		c.seamEdgeProcPhase1(axis, [4]*seamNode{sub[quad[0]], sub[quad[1]], sub[quad[2]], sub[quad[3]]})
	}

	for i, s := range sub {
		if s != nil && s.b.InducedSeamDirty {
			nodes[edgeProcRecursionTable[axis][i][0]].b.InducedSeamDirty = true
		}
	}
}

// seamFaceProcPhase1 is seamEdgeProcPhase1's analogue for the 2 chunks
// sharing a face along axis.
func (c *Controller) seamFaceProcPhase1(axis int, nodes [2]*seamNode) {
	if !canProceedPhase1(nodes[:]) {
		return
	}

	sub, hasChildren := c.getSubNodes(nodes[:], faceProcRecursionTable[axis])
	if !hasChildren {
		if needRebuildSeam(nodes[0]) {
			nodes[0].b.InducedSeamDirty = true
		}
		return
	}

	for _, pair := range subfaceSharingTable[axis] {
		c.seamFaceProcPhase1(axis, [2]*seamNode{sub[pair[0]], sub[pair[1]]})
	}
	for _, edgeAxis := range [2]int{(axis + 1) % 3, (axis + 2) % 3} {
		for _, quad := range subedgeSharingTable[edgeAxis] {
			c.seamEdgeProcPhase1(edgeAxis, [4]*seamNode{sub[quad[0]], sub[quad[1]], sub[quad[2]], sub[quad[3]]})
		}
	}

	for i, s := range sub {
		if s != nil && s.b.InducedSeamDirty {
			nodes[faceProcRecursionTable[axis][i][0]].b.InducedSeamDirty = true
		}
	}
}

// seamCellProcPhase1 descends a single chunk's 8 children, running
// seamFaceProc/seamEdgeProc over every sibling pair/quadruple that
// shares a face or edge, then recurses into each child before folding
// its induced_seam_dirty flag back up.
func (c *Controller) seamCellProcPhase1(node *seamNode) {
	if node == nil || !node.b.ChunkChanged || node.b.State == Active {
		return
	}

	var sub [8]*seamNode
	for i := range sub {
		sub[i] = c.childSeamNode(node, i)
	}

	for axis := 0; axis < 3; axis++ {
		for _, pair := range subfaceSharingTable[axis] {
			c.seamFaceProcPhase1(axis, [2]*seamNode{sub[pair[0]], sub[pair[1]]})
		}
	}
	for axis := 0; axis < 3; axis++ {
		for _, quad := range subedgeSharingTable[axis] {
			c.seamEdgeProcPhase1(axis, [4]*seamNode{sub[quad[0]], sub[quad[1]], sub[quad[2]], sub[quad[3]]})
		}
	}

	for _, s := range sub {
		c.seamCellProcPhase1(s)
		if s != nil && s.b.InducedSeamDirty {
			node.b.InducedSeamDirty = true
		}
	}
}

// seamEdgeProcPhase2 walks the same recursion as Phase 1 but stops at
// the first node whose induced_seam_dirty flag isn't set (nothing below
// it needs a seam rebuild), invoking RebuildEdgeSeam at every leaf that
// does.
func (c *Controller) seamEdgeProcPhase2(axis int, nodes [4]*seamNode) {
	if !canProceedPhase2(nodes[:]) {
		return
	}

	sub, hasChildren := c.getSubNodes(nodes[:], edgeProcRecursionTable[axis])
	if !hasChildren {
		if nodes[0].b.State == Active {
			nodes[0].b.ChunkCopied = true
			if c.RebuildEdgeSeam != nil {
				c.RebuildEdgeSeam(axis, nodes[0].key, nodes[1].key, nodes[2].key, nodes[3].key)
			}
		}
		return
	}

	for _, quad := range subedgeSharingTable[axis] {
		c.seamEdgeProcPhase2(axis, [4]*seamNode{sub[quad[0]], sub[quad[1]], sub[quad[2]], sub[quad[3]]})
	}
}

// seamFaceProcPhase2 is seamEdgeProcPhase2's analogue for a face pair.
func (c *Controller) seamFaceProcPhase2(axis int, nodes [2]*seamNode) {
	if !canProceedPhase2(nodes[:]) {
		return
	}

	sub, hasChildren := c.getSubNodes(nodes[:], faceProcRecursionTable[axis])
	if !hasChildren {
		if nodes[0].b.State == Active {
			nodes[0].b.ChunkCopied = true
			if c.RebuildFaceSeam != nil {
				c.RebuildFaceSeam(axis, nodes[0].key, nodes[1].key)
			}
		}
		return
	}

	for _, pair := range subfaceSharingTable[axis] {
		c.seamFaceProcPhase2(axis, [2]*seamNode{sub[pair[0]], sub[pair[1]]})
	}
	for _, edgeAxis := range [2]int{(axis + 1) % 3, (axis + 2) % 3} {
		for _, quad := range subedgeSharingTable[edgeAxis] {
			c.seamEdgeProcPhase2(edgeAxis, [4]*seamNode{sub[quad[0]], sub[quad[1]], sub[quad[2]], sub[quad[3]]})
		}
	}
}

// resetTemporaryFlags clears a node's per-tick seam bookkeeping
// (chunk_changed, chunk_copied, induced_seam_dirty) once Phase 2 has
// fully processed it, recursing only into children that were actually
// marked dirty — the ones Phase 2 visited.
func (c *Controller) resetTemporaryFlags(node *seamNode) {
	node.b.ChunkChanged = false
	node.b.ChunkCopied = false
	node.b.InducedSeamDirty = false
	for i := 0; i < 8; i++ {
		child := c.childSeamNode(node, i)
		if child != nil && child.b.InducedSeamDirty {
			c.resetTemporaryFlags(child)
		}
	}
}

// seamCellProcPhase2 rebuilds seams bottom-up under node, wherever
// Phase 1 left induced_seam_dirty set, then clears every temporary flag
// it touched.
func (c *Controller) seamCellProcPhase2(node *seamNode) {
	if node == nil || !node.b.InducedSeamDirty {
		return
	}

	if node.b.State == Active {
		// Active chunks never touch another active chunk directly; seam
		// rebuilding already happened one level up.
		c.resetTemporaryFlags(node)
		return
	}

	var sub [8]*seamNode
	for i := range sub {
		sub[i] = c.childSeamNode(node, i)
	}

	for axis := 0; axis < 3; axis++ {
		for _, pair := range subfaceSharingTable[axis] {
			c.seamFaceProcPhase2(axis, [2]*seamNode{sub[pair[0]], sub[pair[1]]})
		}
	}
	for axis := 0; axis < 3; axis++ {
		for _, quad := range subedgeSharingTable[axis] {
			c.seamEdgeProcPhase2(axis, [4]*seamNode{sub[quad[0]], sub[quad[1]], sub[quad[2]], sub[quad[3]]})
		}
	}

	// Recurse after the face/edge passes above, so a child's dirty flag
	// isn't cleared before its parent has had a chance to read it.
	for _, s := range sub {
		c.seamCellProcPhase2(s)
	}

	c.resetTemporaryFlags(node)
}

// RunSeamPass runs both phases of the seam pass rooted at root: Phase 1
// propagates induced_seam_dirty upward from whatever chunks changed this
// tick, Phase 2 rebuilds seams bottom-up wherever that flag landed and
// clears the tick's temporary flags. A no-op if root isn't tracked.
func (c *Controller) RunSeamPass(root tree.ChunkKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runSeamPassLocked(root)
}

func (c *Controller) runSeamPassLocked(root tree.ChunkKey) {
	b, ok := c.blocks[root]
	if !ok {
		return
	}
	node := &seamNode{key: root, b: b}
	c.seamCellProcPhase1(node)
	c.seamCellProcPhase2(node)
}

// UpdateCrossSuperchunkSeams runs the seam pass's face/edge procs across
// every pair of axis-adjacent engaged superchunks, per spec.md §4.J's
// "across superchunks" half and the original's
// Controller::updateCrossSuperchunkSeams.
func (c *Controller) UpdateCrossSuperchunkSeams() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCrossSuperchunkSeamsLocked()
}

func (c *Controller) updateCrossSuperchunkSeamsLocked() {
	neighbor := func(base tree.ChunkKey, dx, dy, dz int32) *seamNode {
		key := tree.ChunkKey{X: base.X + dx, Y: base.Y + dy, Z: base.Z + dz, Lod: base.Lod}
		b, ok := c.blocks[key]
		if !ok {
			return nil
		}
		return &seamNode{key: key, b: b}
	}

	for key := range c.superchunks {
		b, ok := c.blocks[key]
		if !ok {
			continue
		}
		me := &seamNode{key: key, b: b}
		cbX := neighbor(key, 1, 0, 0)
		cbY := neighbor(key, 0, 1, 0)
		cbZ := neighbor(key, 0, 0, 1)
		cbXY := neighbor(key, 1, 1, 0)
		cbXZ := neighbor(key, 1, 0, 1)
		cbYZ := neighbor(key, 0, 1, 1)

		c.seamFaceProcPhase1(0, [2]*seamNode{me, cbX})
		c.seamFaceProcPhase1(1, [2]*seamNode{me, cbY})
		c.seamFaceProcPhase1(2, [2]*seamNode{me, cbZ})
		c.seamEdgeProcPhase1(0, [4]*seamNode{me, cbY, cbYZ, cbZ})
		c.seamEdgeProcPhase1(1, [4]*seamNode{me, cbZ, cbXZ, cbX})
		c.seamEdgeProcPhase1(2, [4]*seamNode{me, cbX, cbXY, cbY})

		c.seamFaceProcPhase2(0, [2]*seamNode{me, cbX})
		c.seamFaceProcPhase2(1, [2]*seamNode{me, cbY})
		c.seamFaceProcPhase2(2, [2]*seamNode{me, cbZ})
		c.seamEdgeProcPhase2(0, [4]*seamNode{me, cbY, cbYZ, cbZ})
		c.seamEdgeProcPhase2(1, [4]*seamNode{me, cbZ, cbXZ, cbX})
		c.seamEdgeProcPhase2(2, [4]*seamNode{me, cbX, cbXY, cbY})
	}
}
