package lod

// The seam pass's recursion tables, reproduced verbatim from
// original_source/include/voxen/common/terrain/octree_tables.hpp —
// spec.md §9 names this the one place the spec asks for a literal table
// copy rather than a derivation, since there is no shorter correct
// description of "which pair of an octree cell's 8 children share a
// given face/edge" than the table itself.

// subfaceSharingTable[axis][pair] gives the two children of a cell that
// share a face perpendicular to axis.
var subfaceSharingTable = [3][4][2]int{
	{{0, 2}, {4, 6}, {5, 7}, {1, 3}}, // X
	{{0, 4}, {1, 5}, {3, 7}, {2, 6}}, // Y
	{{0, 1}, {2, 3}, {6, 7}, {4, 5}}, // Z
}

// subedgeSharingTable[axis][quad] gives the four children of a cell that
// share an edge running along axis. Order matters: it's the argument
// order seamEdgeProcPhase1/2 expect.
var subedgeSharingTable = [3][2][4]int{
	{{0, 4, 5, 1}, {2, 6, 7, 3}}, // X
	{{0, 1, 3, 2}, {4, 5, 7, 6}}, // Y
	{{0, 2, 6, 4}, {1, 3, 7, 5}}, // Z
}

// edgeProcRecursionTable[axis][i] gives, for the i-th of the 8 children
// used in a recursive seamEdgeProc call, the (parent index, child
// octant) pair to read it from — parent index into the 4-node argument
// list, child octant into that parent's children.
var edgeProcRecursionTable = [3][8][2]int{
	{
		{0, 5}, {3, 4}, {0, 7}, {3, 6},
		{1, 1}, {2, 0}, {1, 3}, {2, 2},
	}, // X
	{
		{0, 3}, {1, 2}, {3, 1}, {2, 0},
		{0, 7}, {1, 6}, {3, 5}, {2, 4},
	}, // Y
	{
		{0, 6}, {0, 7}, {1, 4}, {1, 5},
		{3, 2}, {3, 3}, {2, 0}, {2, 1},
	}, // Z
}

// faceProcRecursionTable[axis][i] is edgeProcRecursionTable's analogue
// for the 2-node seamFaceProc call.
var faceProcRecursionTable = [3][8][2]int{
	{
		{0, 2}, {0, 3}, {1, 0}, {1, 1},
		{0, 6}, {0, 7}, {1, 4}, {1, 5},
	}, // X
	{
		{0, 4}, {0, 5}, {0, 6}, {0, 7},
		{1, 0}, {1, 1}, {1, 2}, {1, 3},
	}, // Y
	{
		{0, 1}, {1, 0}, {0, 3}, {1, 2},
		{0, 5}, {1, 4}, {0, 7}, {1, 6},
	}, // Z
}
